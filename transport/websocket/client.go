package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// client is one websocket connection. Writes happen only on writePump; every
// other goroutine hands frames over through send.
type client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	logger  *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(logger *slog.Logger, id string, conn *websocket.Conn, sendBuffer int, limiter *rate.Limiter) *client {
	return &client{
		id:      id,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: limiter,
		logger:  logger.With("connectionID", id),
		done:    make(chan struct{}),
	}
}

// enqueue hands data to the write pump. A client that cannot keep up is
// dropped rather than blocking the sender.
func (that *client) enqueue(data []byte) bool {
	select {
	case <-that.done:
		return false
	default:
	}

	select {
	case that.send <- data:
		return true
	default:
		that.logger.Warn("send buffer is full, dropping connection")
		that.close()
		return false
	}
}

// close stops the write pump, which then closes the connection.
func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

// readPump delivers inbound messages to dispatch until the connection fails.
func (that *client) readPump(ctx context.Context, readLimit int64, pongWait time.Duration, dispatch func(context.Context, *client, []byte)) {
	log := that.logger.With("method", "readPump")

	that.conn.SetReadLimit(readLimit)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("connection closed unexpectedly", "error", err)
			}

			return
		}

		dispatch(ctx, that, data)
	}
}

// writePump writes queued frames and keeps the connection alive with pings.
func (that *client) writePump(pingPeriod, writeWait time.Duration) {
	log := that.logger.With("method", "writePump")

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		that.close()
		_ = that.conn.Close()
	}()

	for {
		select {
		case data := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn("failed to write ping", "error", err)
				return
			}
		case <-that.done:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = that.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
