package entity

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
)

const (
	StatusWaiting      = "waiting"
	StatusOngoing      = "ongoing"
	StatusWon          = "won"
	StatusDraw         = "draw"
	StatusTimedOut     = "timed_out"
	StatusDisconnected = "disconnected"
)

var ErrUnknownRoomStatus = errors.New("unknown room status")

// Room is one match between two connections. The embedded mutex guards every
// field; callers lock it for the whole of an operation.
type Room struct {
	sync.Mutex

	ID       string
	Board    Board
	Ledger   *MoveLedger
	Turn     Seat
	Duration int
	Status   string
	Winner   Seat

	players [2]*Player
}

func NewRoom(id string, creator Player, duration, ledgerCapacity int) *Room {
	creator.Timer = Timer{Min: duration, Sec: 0}

	room := &Room{
		ID:       id,
		Ledger:   NewMoveLedger(ledgerCapacity),
		Turn:     SeatFirst,
		Duration: duration,
		Status:   StatusWaiting,
	}
	room.players[SeatFirst.index()] = &creator

	return room
}

// Player returns the player in seat, nil while the seat is empty.
func (that *Room) Player(seat Seat) *Player {
	return that.players[seat.index()]
}

// SeatOf resolves the seat held by connectionID.
func (that *Room) SeatOf(connectionID string) (Seat, bool) {
	for _, seat := range []Seat{SeatFirst, SeatSecond} {
		player := that.Player(seat)
		if player != nil && player.ConnectionID == connectionID {
			return seat, true
		}
	}

	return "", false
}

func (that *Room) HasConnection(connectionID string) bool {
	_, ok := that.SeatOf(connectionID)
	return ok
}

// Participants returns the connection ids of the seated players, first seat first.
func (that *Room) Participants() []string {
	ids := make([]string, 0, len(that.players))
	for _, player := range that.players {
		if player != nil {
			ids = append(ids, player.ConnectionID)
		}
	}

	return ids
}

// Join seats the second player and starts the match.
func (that *Room) Join(player Player) error {
	if that.IsFinished() {
		return apperror.ErrGameFinished
	}

	if that.Player(SeatSecond) != nil {
		return fmt.Errorf("%w: room %s", apperror.ErrRoomFull, that.ID)
	}

	if that.HasConnection(player.ConnectionID) {
		return fmt.Errorf("%w: room %s", apperror.ErrAlreadyInRoom, that.ID)
	}

	player.Timer = Timer{Min: that.Duration, Sec: 0}
	that.players[SeatSecond.index()] = &player
	that.Status = StatusOngoing

	return nil
}

// Finish moves the room into a terminal status. winner is empty for a draw.
func (that *Room) Finish(status string, winner Seat) {
	that.Status = status
	that.Winner = winner
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Room) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Room) IsFinished() bool {
	switch that.Status {
	case StatusWon, StatusDraw, StatusTimedOut, StatusDisconnected:
		return true
	default:
		return false
	}
}

func (that *Room) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownRoomStatus, that.Status)
	}
}
