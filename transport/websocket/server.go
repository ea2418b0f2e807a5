package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/config"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/entity"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/pkg"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/usecase"
)

type roomManager interface {
	CreateRoom(ctx context.Context, connectionID, name string, duration int) (usecase.RoomCreated, error)
	JoinRoom(ctx context.Context, connectionID, roomID, name string) (usecase.MatchStarted, error)
	MakeMove(ctx context.Context, req usecase.MoveRequest) (usecase.MoveResult, error)
	TimeOut(ctx context.Context, connectionID, roomID, timedOut string) (usecase.GameOver, error)
	Disconnect(ctx context.Context, connectionID string) (usecase.GameOver, error)
}

type handlerFunc func(ctx context.Context, sender *client, message *Message) error

type Server struct {
	logger   *slog.Logger
	rooms    roomManager
	conf     config.Websocket
	upgrader websocket.Upgrader

	clientsMutex sync.RWMutex
	clients      map[string]*client

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, rooms roomManager, conf config.Websocket) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		rooms:  rooms,
		conf:   conf,

		clients:  make(map[string]*client),
		handlers: make(map[string]handlerFunc),
	}

	server.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     server.checkOrigin,
	}

	server.handlers[ActionCreateRoom] = server.handleCreateRoom
	server.handlers[ActionJoinRoom] = server.handleJoinRoom
	server.handlers[ActionMove] = server.handleMove
	server.handlers[ActionTimeOut] = server.handleTimeOut

	return server
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	limiter := rate.NewLimiter(rate.Limit(that.conf.MessagesPerSecond), that.conf.Burst)
	sender := newClient(that.logger, pkg.GenerateConnectionID(), conn, that.conf.SendBuffer, limiter)

	that.register(sender)
	log.Info("WebSocket connection established", "connectionID", sender.id, "clients", that.Len())

	go sender.writePump(that.conf.PingPeriod, that.conf.WriteWait)

	that.sendToClient(sender, ActionBoardInit, BoardPayload{Board: entity.Board{}})

	ctx := req.Context()
	sender.readPump(ctx, that.conf.ReadLimit, that.conf.PongWait, that.dispatch)

	that.unregister(sender)
	sender.close()

	that.handleDisconnect(context.WithoutCancel(ctx), sender)
	log.Info("WebSocket connection closed", "connectionID", sender.id)
}

// Close drops every connection. Each one still goes through disconnect handling.
func (that *Server) Close() {
	that.clientsMutex.RLock()
	defer that.clientsMutex.RUnlock()

	for _, c := range that.clients {
		c.close()
	}
}

func (that *Server) Len() int {
	that.clientsMutex.RLock()
	defer that.clientsMutex.RUnlock()

	return len(that.clients)
}

func (that *Server) checkOrigin(req *http.Request) bool {
	if that.conf.AllowsAnyOrigin() {
		return true
	}

	origin := req.Header.Get("Origin")

	return origin == "" || slices.Contains(that.conf.AllowedOrigins, origin)
}

func (that *Server) register(c *client) {
	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	that.clients[c.id] = c
}

func (that *Server) unregister(c *client) {
	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	delete(that.clients, c.id)
}

// dispatch - processes one message from the client.
func (that *Server) dispatch(ctx context.Context, sender *client, data []byte) {
	log := sender.logger.With("method", "dispatch")

	if !sender.limiter.Allow() {
		log.Warn("rate limit exceeded")
		that.sendToast(sender, true, "Slow Down", "Too many messages, try again in a moment.")
		return
	}

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		log.Warn("failed to unmarshal message", "error", err)
		that.sendToast(sender, true, "Bad Request", "Malformed message.")
		return
	}

	handler, ok := that.handlers[message.Action]
	if !ok {
		log.Warn("unknown action", "action", message.Action)
		that.sendToast(sender, true, "Unknown Action", "Action "+message.Action+" is not supported.")
		return
	}

	if err := handler(ctx, sender, &message); err != nil {
		log.Info("action rejected", "action", message.Action, "error", err)
		that.reportError(sender, message.Action, err)
	}
}

// sendTo delivers one message to every connected recipient.
func (that *Server) sendTo(recipients []string, action string, payload any) {
	data, err := encode(action, payload)
	if err != nil {
		that.logger.Error("failed to encode message", "error", err)
		return
	}

	that.clientsMutex.RLock()
	targets := make([]*client, 0, len(recipients))
	for _, id := range recipients {
		if c, ok := that.clients[id]; ok {
			targets = append(targets, c)
		}
	}
	that.clientsMutex.RUnlock()

	for _, c := range targets {
		c.enqueue(data)
	}
}

func (that *Server) sendToClient(c *client, action string, payload any) {
	data, err := encode(action, payload)
	if err != nil {
		that.logger.Error("failed to encode message", "error", err)
		return
	}

	c.enqueue(data)
}

func (that *Server) sendToast(c *client, isError bool, title, message string) {
	that.sendToClient(c, ActionToast, ToastPayload{IsError: isError, Title: title, Message: message})
}
