package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/entity"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/tictactoe"
)

const (
	MinDuration   = 1
	MaxDuration   = 60
	MaxNameLength = 32
)

type roomRegistry interface {
	Allocate(ctx context.Context) (string, error)
	Register(room *entity.Room) error
	Lookup(id string) (*entity.Room, error)
	Remove(ctx context.Context, id string) error
	FindByConnection(connectionID string) (*entity.Room, error)
}

type RoomCreated struct {
	RoomID   string
	Duration int
}

type MatchStarted struct {
	RoomID     string
	FirstName  string
	SecondName string
	Turn       entity.Seat
	Duration   int
	Recipients []string
}

type MoveRequest struct {
	ConnectionID string
	RoomID       string
	Position     int
	Timers       tictactoe.Timers
}

// MoveResult is a snapshot of the room taken right after an accepted move.
type MoveResult struct {
	RoomID      string
	Board       entity.Board
	Turn        entity.Seat
	Disappeared int

	Won               bool
	Draw              bool
	Line              tictactoe.Line
	MoverConnectionID string
	WinnerName        string

	Recipients []string
}

func (that MoveResult) IsTerminal() bool {
	return that.Won || that.Draw
}

// GameOver describes a match ended by a timeout or a disconnect.
type GameOver struct {
	RoomID             string
	Status             string
	WinnerConnectionID string
	LoserName          string
	Recipients         []string
}

// RoomManager runs every room operation under the room's own lock and drops
// finished rooms from the registry before releasing it.
type RoomManager struct {
	logger *slog.Logger
	rooms  roomRegistry

	ledgerCapacity int
}

func NewRoomManager(logger *slog.Logger, rooms roomRegistry, ledgerCapacity int) *RoomManager {
	return &RoomManager{
		logger: logger,
		rooms:  rooms,

		ledgerCapacity: ledgerCapacity,
	}
}

func (that *RoomManager) CreateRoom(ctx context.Context, connectionID, name string, duration int) (RoomCreated, error) {
	log := that.logger.With("method", "CreateRoom", "connectionID", connectionID)

	name, err := validateName(name)
	if err != nil {
		return RoomCreated{}, err
	}

	if err = validateDuration(duration); err != nil {
		return RoomCreated{}, err
	}

	if err = that.ensureNotSeated(connectionID); err != nil {
		return RoomCreated{}, err
	}

	id, err := that.rooms.Allocate(ctx)
	if err != nil {
		return RoomCreated{}, fmt.Errorf("failed to allocate room: %w", err)
	}

	room := entity.NewRoom(id, entity.Player{ConnectionID: connectionID, Name: name}, duration, that.ledgerCapacity)
	if err = that.rooms.Register(room); err != nil {
		if removeErr := that.rooms.Remove(ctx, id); removeErr != nil {
			log.Error("failed to free room id", "roomID", id, "error", removeErr)
		}

		return RoomCreated{}, fmt.Errorf("failed to register room: %w", err)
	}

	log.Info("room created", "roomID", id, "duration", duration)

	return RoomCreated{RoomID: id, Duration: duration}, nil
}

func (that *RoomManager) JoinRoom(ctx context.Context, connectionID, roomID, name string) (MatchStarted, error) {
	log := that.logger.With("method", "JoinRoom", "connectionID", connectionID, "roomID", roomID)

	name, err := validateName(name)
	if err != nil {
		return MatchStarted{}, err
	}

	if err = that.ensureNotSeated(connectionID); err != nil {
		return MatchStarted{}, err
	}

	room, err := that.lockRoom(roomID)
	if err != nil {
		return MatchStarted{}, err
	}
	defer room.Unlock()

	if err = room.Join(entity.Player{ConnectionID: connectionID, Name: name}); err != nil {
		return MatchStarted{}, fmt.Errorf("failed to join room: %w", err)
	}

	log.Info("match started")

	return MatchStarted{
		RoomID:     room.ID,
		FirstName:  room.Player(entity.SeatFirst).Name,
		SecondName: room.Player(entity.SeatSecond).Name,
		Turn:       room.Turn,
		Duration:   room.Duration,
		Recipients: room.Participants(),
	}, nil
}

func (that *RoomManager) MakeMove(ctx context.Context, req MoveRequest) (MoveResult, error) {
	log := that.logger.With("method", "MakeMove", "connectionID", req.ConnectionID, "roomID", req.RoomID)

	room, err := that.lockRoom(req.RoomID)
	if err != nil {
		return MoveResult{}, err
	}
	defer room.Unlock()

	outcome, err := tictactoe.MakeMove(room, req.ConnectionID, req.Position, req.Timers)
	if err != nil {
		return MoveResult{}, fmt.Errorf("failed to make move: %w", err)
	}

	result := MoveResult{
		RoomID:      room.ID,
		Board:       room.Board,
		Turn:        room.Turn,
		Disappeared: outcome.Disappeared,
		Won:         outcome.Won,
		Draw:        outcome.Draw,
		Line:        outcome.Line,
		Recipients:  room.Participants(),
	}

	if outcome.Won {
		result.MoverConnectionID = req.ConnectionID
		result.WinnerName = room.Player(outcome.Mover).Name
	}

	if result.IsTerminal() {
		that.remove(ctx, log, room)
		log.Info("match finished by move", "status", room.Status, "line", outcome.Line)
	}

	return result, nil
}

// TimeOut ends the match after the seat tagged timedOut ran out of time.
// Only a participant of the room may report it.
func (that *RoomManager) TimeOut(ctx context.Context, connectionID, roomID, timedOut string) (GameOver, error) {
	log := that.logger.With("method", "TimeOut", "connectionID", connectionID, "roomID", roomID)

	seat, err := entity.ParseSeat(timedOut)
	if err != nil {
		return GameOver{}, err
	}

	room, err := that.lockRoom(roomID)
	if err != nil {
		return GameOver{}, err
	}
	defer room.Unlock()

	if !room.HasConnection(connectionID) {
		return GameOver{}, fmt.Errorf("%w: connection %s is not in room %s", apperror.ErrNoActiveRoom, connectionID, roomID)
	}

	outcome, err := tictactoe.TimeOut(room, seat)
	if err != nil {
		return GameOver{}, fmt.Errorf("failed to time out: %w", err)
	}

	over := GameOver{
		RoomID:             room.ID,
		Status:             room.Status,
		WinnerConnectionID: outcome.WinnerConnectionID,
		LoserName:          outcome.LoserName,
		Recipients:         room.Participants(),
	}

	that.remove(ctx, log, room)
	log.Info("match finished by timeout", "seat", seat)

	return over, nil
}

// Disconnect ends the match of connectionID, if any. The leaver is not among
// the recipients. ErrRoomNotFound means the connection was not seated.
func (that *RoomManager) Disconnect(ctx context.Context, connectionID string) (GameOver, error) {
	log := that.logger.With("method", "Disconnect", "connectionID", connectionID)

	room, err := that.rooms.FindByConnection(connectionID)
	if err != nil {
		return GameOver{}, err
	}

	room.Lock()
	defer room.Unlock()

	if room.IsFinished() || !room.HasConnection(connectionID) {
		return GameOver{}, fmt.Errorf("%w: connection %s", apperror.ErrRoomNotFound, connectionID)
	}

	outcome, err := tictactoe.Disconnect(room, connectionID)
	if err != nil {
		return GameOver{}, fmt.Errorf("failed to disconnect: %w", err)
	}

	over := GameOver{
		RoomID:             room.ID,
		Status:             room.Status,
		WinnerConnectionID: outcome.WinnerConnectionID,
		LoserName:          outcome.LoserName,
	}

	for _, participant := range room.Participants() {
		if participant != connectionID {
			over.Recipients = append(over.Recipients, participant)
		}
	}

	that.remove(ctx, log, room)
	log.Info("match finished by disconnect", "roomID", room.ID)

	return over, nil
}

// lockRoom returns the room locked. A room finished by a racing operation is
// reported as not found.
func (that *RoomManager) lockRoom(roomID string) (*entity.Room, error) {
	room, err := that.rooms.Lookup(roomID)
	if err != nil {
		return nil, err
	}

	room.Lock()

	if room.IsFinished() {
		room.Unlock()
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	return room, nil
}

// remove must be called with the room locked.
func (that *RoomManager) remove(ctx context.Context, log *slog.Logger, room *entity.Room) {
	if err := that.rooms.Remove(ctx, room.ID); err != nil {
		log.Error("failed to remove room", "roomID", room.ID, "error", err)
	}
}

func (that *RoomManager) ensureNotSeated(connectionID string) error {
	room, err := that.rooms.FindByConnection(connectionID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to find room by connection: %w", err)
	}

	return fmt.Errorf("%w: room %s", apperror.ErrAlreadyInRoom, room.ID)
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", fmt.Errorf("%w: must be 1 to %d characters", apperror.ErrInvalidName, MaxNameLength)
	}

	return name, nil
}

func validateDuration(duration int) error {
	if duration < MinDuration || duration > MaxDuration {
		return fmt.Errorf("%w: must be %d to %d minutes", apperror.ErrInvalidDuration, MinDuration, MaxDuration)
	}

	return nil
}
