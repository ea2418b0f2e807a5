package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/entity"
)

// Line is three board positions, in ascending order.
type Line [3]int

var WinLines = []Line{
	{1, 2, 3},
	{4, 5, 6},
	{7, 8, 9},
	{1, 4, 7},
	{2, 5, 8},
	{3, 6, 9},
	{1, 5, 9},
	{3, 5, 7},
}

// Timers carries the client measured clocks sent along with a move. A nil
// field leaves that player's clock as it is.
type Timers struct {
	First  *entity.Timer
	Second *entity.Timer
}

type MoveOutcome struct {
	Mover    entity.Seat
	Position int

	// Disappeared is the position cleared by the ledger, 0 when none was.
	Disappeared int

	Won  bool
	Line Line
	Draw bool
}

type ForfeitOutcome struct {
	Winner             entity.Seat
	WinnerConnectionID string
	LoserName          string
}

// Evaluate reports the first complete line on board and the mark owning it.
func Evaluate(board entity.Board) (Line, entity.Mark, bool) {
	for _, line := range WinLines {
		a, b, c := board.At(line[0]), board.At(line[1]), board.At(line[2])
		if a != entity.EmptyCell && a == b && b == c {
			return line, a, true
		}
	}

	return Line{}, entity.EmptyCell, false
}

// MakeMove applies a move by connectionID. On error the room is left untouched.
func MakeMove(room *entity.Room, connectionID string, position int, timers Timers) (MoveOutcome, error) {
	if err := validateMove(room, connectionID, position); err != nil {
		return MoveOutcome{}, fmt.Errorf("invalid move: %w", err)
	}

	mover := room.Turn
	outcome := MoveOutcome{Mover: mover, Position: position}

	if oldest, evicted := room.Ledger.Push(position); evicted {
		room.Board.Clear(oldest)
		outcome.Disappeared = oldest
	}
	room.Board.Place(position, mover.Mark())
	room.Turn = mover.Other()

	applyTimers(room, timers)

	if line, _, won := Evaluate(room.Board); won {
		outcome.Won = true
		outcome.Line = line
		room.Finish(entity.StatusWon, mover)

		return outcome, nil
	}

	if room.Board.IsFull() {
		outcome.Draw = true
		room.Finish(entity.StatusDraw, "")
	}

	return outcome, nil
}

// validateMove - checks if the move is valid.
func validateMove(room *entity.Room, connectionID string, position int) error {
	if room.IsFinished() {
		return apperror.ErrGameFinished
	}

	owner := room.Player(room.Turn)
	if owner == nil || owner.ConnectionID != connectionID {
		return apperror.ErrNotYourTurn
	}

	if err := room.ConfirmOngoingState(); err != nil {
		return err
	}

	if err := entity.ValidatePosition(position); err != nil {
		return err
	}

	if room.Board.IsOccupied(position) {
		return fmt.Errorf("%w: %d", apperror.ErrCellOccupied, position)
	}

	return nil
}

func applyTimers(room *entity.Room, timers Timers) {
	if player := room.Player(entity.SeatFirst); player != nil && timers.First != nil {
		player.Timer = *timers.First
	}

	if player := room.Player(entity.SeatSecond); player != nil && timers.Second != nil {
		player.Timer = *timers.Second
	}
}

// TimeOut ends the match in favour of the seat opposite to timedOut.
func TimeOut(room *entity.Room, timedOut entity.Seat) (ForfeitOutcome, error) {
	if room.IsFinished() {
		return ForfeitOutcome{}, apperror.ErrGameFinished
	}

	outcome := forfeit(room, timedOut)
	room.Finish(entity.StatusTimedOut, outcome.Winner)

	return outcome, nil
}

// Disconnect ends the match in favour of whoever is not connectionID.
func Disconnect(room *entity.Room, connectionID string) (ForfeitOutcome, error) {
	if room.IsFinished() {
		return ForfeitOutcome{}, apperror.ErrGameFinished
	}

	leaver, ok := room.SeatOf(connectionID)
	if !ok {
		return ForfeitOutcome{}, fmt.Errorf("%w: connection %s", apperror.ErrNoActiveRoom, connectionID)
	}

	outcome := forfeit(room, leaver)
	room.Finish(entity.StatusDisconnected, outcome.Winner)

	return outcome, nil
}

func forfeit(room *entity.Room, loser entity.Seat) ForfeitOutcome {
	outcome := ForfeitOutcome{Winner: loser.Other()}

	if player := room.Player(loser); player != nil {
		outcome.LoserName = player.Name
	}

	// the winner seat may still be empty when the creator leaves a waiting room
	if player := room.Player(outcome.Winner); player != nil {
		outcome.WinnerConnectionID = player.ConnectionID
	}

	return outcome
}
