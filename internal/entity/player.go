package entity

import (
	"fmt"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
)

// Seat identifies one of the two player slots of a room. The values are the
// tags the clients use for the turn owner and for time-out reports.
type Seat string

const (
	SeatFirst  Seat = "pX"
	SeatSecond Seat = "pO"
)

func ParseSeat(tag string) (Seat, error) {
	switch seat := Seat(tag); seat {
	case SeatFirst, SeatSecond:
		return seat, nil
	default:
		return "", fmt.Errorf("%w: %q", apperror.ErrInvalidSeat, tag)
	}
}

func (that Seat) Other() Seat {
	if that == SeatFirst {
		return SeatSecond
	}
	return SeatFirst
}

func (that Seat) Mark() Mark {
	if that == SeatFirst {
		return MarkX
	}
	return MarkO
}

func (that Seat) index() int {
	if that == SeatFirst {
		return 0
	}
	return 1
}

// Timer is a countdown snapshot measured by the clients.
type Timer struct {
	Min int `json:"min"`
	Sec int `json:"sec"`
}

type Player struct {
	ConnectionID string `json:"id"`
	Name         string `json:"name"`
	Timer        Timer  `json:"timer"`
}
