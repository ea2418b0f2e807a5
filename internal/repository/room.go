package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/entity"
)

const DefaultMaxIDAttempts = 100

type IDGenerator interface {
	Generate() string
}

type IDGeneratorFunc func() string

func (f IDGeneratorFunc) Generate() string {
	return f()
}

type RoomRegistry interface {
	Allocate(ctx context.Context) (string, error)
	Register(room *entity.Room) error
	Lookup(id string) (*entity.Room, error)
	Remove(ctx context.Context, id string) error
	FindByConnection(connectionID string) (*entity.Room, error)
	Len() int
}

// memRooms keeps rooms in process memory. The registry lock is never held
// while a room lock is taken or while the reservation does I/O.
type memRooms struct {
	mu      sync.RWMutex
	rooms   map[string]*entity.Room
	pending map[string]struct{}

	generator   IDGenerator
	reservation Reservation
	maxAttempts int
}

func NewRoomRegistry(generator IDGenerator, reservation Reservation, maxAttempts int) RoomRegistry {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxIDAttempts
	}

	if reservation == nil {
		reservation = NewLocalReservation()
	}

	return &memRooms{
		rooms:       make(map[string]*entity.Room),
		pending:     make(map[string]struct{}),
		generator:   generator,
		reservation: reservation,
		maxAttempts: maxAttempts,
	}
}

// Allocate returns an id that is neither registered nor handed out by an
// earlier Allocate still waiting for Register.
func (that *memRooms) Allocate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < that.maxAttempts; attempt++ {
		id := that.generator.Generate()
		if that.taken(id) {
			continue
		}

		ok, err := that.reservation.Reserve(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to allocate room id: %w", err)
		}

		if !ok {
			continue
		}

		that.mu.Lock()
		_, registered := that.rooms[id]
		_, pending := that.pending[id]
		if !registered && !pending {
			that.pending[id] = struct{}{}
		}
		that.mu.Unlock()

		if registered || pending {
			// lost a race against another Allocate between taken and Lock
			continue
		}

		return id, nil
	}

	return "", fmt.Errorf("%w after %d attempts", apperror.ErrRoomIDExhausted, that.maxAttempts)
}

func (that *memRooms) taken(id string) bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	_, registered := that.rooms[id]
	_, pending := that.pending[id]

	return registered || pending
}

func (that *memRooms) Register(room *entity.Room) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, exists := that.rooms[room.ID]; exists {
		return fmt.Errorf("%w: %s", apperror.ErrRoomAlreadyExists, room.ID)
	}

	delete(that.pending, room.ID)
	that.rooms[room.ID] = room

	return nil
}

func (that *memRooms) Lookup(id string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, id)
	}

	return room, nil
}

// Remove drops a room or a pending allocation. Missing ids are ignored.
func (that *memRooms) Remove(ctx context.Context, id string) error {
	that.mu.Lock()
	_, registered := that.rooms[id]
	_, pending := that.pending[id]
	delete(that.rooms, id)
	delete(that.pending, id)
	that.mu.Unlock()

	if !registered && !pending {
		return nil
	}

	if err := that.reservation.Release(ctx, id); err != nil {
		return fmt.Errorf("failed to remove room: %w", err)
	}

	return nil
}

// FindByConnection scans the rooms for the one seating connectionID.
func (that *memRooms) FindByConnection(connectionID string) (*entity.Room, error) {
	that.mu.RLock()
	rooms := make([]*entity.Room, 0, len(that.rooms))
	for _, room := range that.rooms {
		rooms = append(rooms, room)
	}
	that.mu.RUnlock()

	for _, room := range rooms {
		room.Lock()
		found := room.HasConnection(connectionID) && !room.IsFinished()
		room.Unlock()

		if found {
			return room, nil
		}
	}

	return nil, fmt.Errorf("%w: connection %s", apperror.ErrRoomNotFound, connectionID)
}

func (that *memRooms) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}
