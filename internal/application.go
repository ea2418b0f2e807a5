package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/config"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/pkg"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/repository"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/repository/storage"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/usecase"
	"github.com/rocketscienceinc/vanishing-tictactoe/transport/rest"
	"github.com/rocketscienceinc/vanishing-tictactoe/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application until SIGINT or SIGTERM.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	return Run(ctx, logger, conf)
}

// Run serves HTTP and websocket traffic until ctx is canceled.
func Run(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	reservation, closeReservation, err := newReservation(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := closeReservation(); closeErr != nil {
			log.Error("could not close redis storage", "error", closeErr)
		}
	}()

	registry := repository.NewRoomRegistry(repository.IDGeneratorFunc(pkg.GenerateRoomID), reservation, conf.Game.MaxIDAttempts)
	roomManager := usecase.NewRoomManager(logger, registry, conf.Game.LedgerCapacity)
	wsServer := websocket.New(logger, roomManager, conf.Websocket)
	httpServer := rest.NewServer(conf.HTTPPort, rest.NewRouter(wsServer))

	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort, "registry", conf.Registry.Backend)
		if httpErr := httpServer.ListenAndServe(); httpErr != nil && !errors.Is(httpErr, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), conf.ShutdownTimeout)
	defer cancel()

	wsServer.Close()

	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	return nil
}

// newReservation picks the room id reservation backend. The returned func
// releases whatever the backend holds open.
func newReservation(ctx context.Context, conf *config.Config) (repository.Reservation, func() error, error) {
	if conf.Registry.Backend != config.BackendRedis {
		return repository.NewLocalReservation(), func() error { return nil }, nil
	}

	if conf.Redis.Host == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	reservation := repository.NewRedisReservation(redisStorage.Connection, uuid.NewString(), conf.Registry.ReservationTTL)

	return reservation, redisStorage.Close, nil
}
