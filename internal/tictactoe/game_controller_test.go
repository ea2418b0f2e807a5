package tictactoe

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/vanishing-tictactoe/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	connA = "conn-a"
	connB = "conn-b"
)

func newOngoingRoom(t *testing.T, ledgerCapacity int) *entity.Room {
	t.Helper()

	room := entity.NewRoom("123456", entity.Player{ConnectionID: connA, Name: "Alice"}, 5, ledgerCapacity)
	require.NoError(t, room.Join(entity.Player{ConnectionID: connB, Name: "Bob"}))

	return room
}

// play applies positions alternately, starting with the first seat.
func play(t *testing.T, room *entity.Room, positions ...int) MoveOutcome {
	t.Helper()

	var outcome MoveOutcome
	for _, position := range positions {
		conn := connA
		if room.Turn == entity.SeatSecond {
			conn = connB
		}

		var err error
		outcome, err = MakeMove(room, conn, position, Timers{})
		require.NoError(t, err, "position %d", position)
	}

	return outcome
}

func TestEvaluate(t *testing.T) {
	t.Run("Detects every line", func(t *testing.T) {
		for _, line := range WinLines {
			// Given: a board with only this line marked by O
			var board entity.Board
			for _, position := range line {
				board.Place(position, entity.MarkO)
			}

			// When: evaluating
			got, mark, ok := Evaluate(board)

			// Then: the line and its owner are reported
			assert.True(t, ok)
			assert.Equal(t, line, got)
			assert.Equal(t, entity.MarkO, mark)
		}
	})

	t.Run("Reports no winner on a mixed line", func(t *testing.T) {
		board := entity.Board{
			entity.MarkX, entity.MarkO, entity.MarkX,
			entity.MarkO, entity.MarkX, entity.MarkO,
			entity.MarkO, entity.MarkX, entity.MarkO,
		}

		_, mark, ok := Evaluate(board)

		assert.False(t, ok)
		assert.Equal(t, entity.EmptyCell, mark)
	})
}

func TestMakeMove(t *testing.T) {
	t.Run("Marks the cell, records the move and flips the turn", func(t *testing.T) {
		// Given: an ongoing room
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)

		// When: Alice plays the centre
		outcome, err := MakeMove(room, connA, 5, Timers{})

		// Then: X is on 5 and it's O's turn
		require.NoError(t, err)
		assert.Equal(t, MoveOutcome{Mover: entity.SeatFirst, Position: 5}, outcome)
		assert.Equal(t, entity.MarkX, room.Board.At(5))
		assert.Equal(t, []int{5}, room.Ledger.Moves())
		assert.Equal(t, entity.SeatSecond, room.Turn)
	})

	t.Run("Overwrites both clocks with the snapshots", func(t *testing.T) {
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)

		_, err := MakeMove(room, connA, 1, Timers{
			First:  &entity.Timer{Min: 4, Sec: 31},
			Second: &entity.Timer{Min: 5, Sec: 0},
		})

		require.NoError(t, err)
		assert.Equal(t, entity.Timer{Min: 4, Sec: 31}, room.Player(entity.SeatFirst).Timer)
		assert.Equal(t, entity.Timer{Min: 5, Sec: 0}, room.Player(entity.SeatSecond).Timer)
	})

	t.Run("Missing snapshot keeps the clock", func(t *testing.T) {
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)

		_, err := MakeMove(room, connA, 1, Timers{First: &entity.Timer{Min: 3, Sec: 2}})

		require.NoError(t, err)
		assert.Equal(t, entity.Timer{Min: 5, Sec: 0}, room.Player(entity.SeatSecond).Timer)
	})

	t.Run("Rejects a move out of turn", func(t *testing.T) {
		// Given: it's X's turn
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)

		// When: Bob tries to move
		_, err := MakeMove(room, connB, 1, Timers{})

		// Then: the move is refused and nothing changes
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, entity.Board{}, room.Board)
		assert.Equal(t, entity.SeatFirst, room.Turn)
	})

	t.Run("Rejects a move from a foreign connection", func(t *testing.T) {
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)

		_, err := MakeMove(room, "stranger", 1, Timers{})

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Zero(t, room.Ledger.Len())
	})

	t.Run("Rejects a move before the second player joins", func(t *testing.T) {
		room := entity.NewRoom("123456", entity.Player{ConnectionID: connA, Name: "Alice"}, 5, entity.DefaultLedgerCapacity)

		_, err := MakeMove(room, connA, 1, Timers{})

		require.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
		assert.Equal(t, entity.Board{}, room.Board)
	})

	t.Run("Rejects positions outside the grid", func(t *testing.T) {
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)

		for _, position := range []int{0, 10, -3} {
			_, err := MakeMove(room, connA, position, Timers{})
			require.ErrorIs(t, err, apperror.ErrInvalidCell)
		}

		assert.Equal(t, entity.SeatFirst, room.Turn)
	})

	t.Run("Rejects an occupied cell and leaves state unchanged", func(t *testing.T) {
		// Given: X on 1
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)
		play(t, room, 1)
		boardBefore := room.Board
		timerBefore := room.Player(entity.SeatSecond).Timer

		// When: O plays on 1
		_, err := MakeMove(room, connB, 1, Timers{Second: &entity.Timer{Min: 1, Sec: 1}})

		// Then: board, ledger, turn and clocks are unchanged
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, boardBefore, room.Board)
		assert.Equal(t, []int{1}, room.Ledger.Moves())
		assert.Equal(t, entity.SeatSecond, room.Turn)
		assert.Equal(t, timerBefore, room.Player(entity.SeatSecond).Timer)
	})

	t.Run("Rejects the cell about to disappear", func(t *testing.T) {
		// Given: a full ledger whose oldest move is X on 1
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)
		play(t, room, 1, 2, 3, 5, 4, 6, 8)
		boardBefore := room.Board

		// When: O plays on 1
		_, err := MakeMove(room, connB, 1, Timers{})

		// Then: the occupancy check wins over eviction
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, boardBefore, room.Board)
		assert.Equal(t, 7, room.Ledger.Len())
	})

	t.Run("Rejects any move once the game is finished", func(t *testing.T) {
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)
		play(t, room, 1, 2, 5, 3, 9)

		_, err := MakeMove(room, connB, 4, Timers{})

		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})
}

func TestMakeMove_DisappearingSquare(t *testing.T) {
	t.Run("Eighth move clears the first move", func(t *testing.T) {
		// Given: seven moves without a line
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)
		play(t, room, 1, 2, 3, 5, 4, 6, 8)
		require.Equal(t, 7, room.Ledger.Len())

		// When: O plays the eighth move
		outcome := play(t, room, 7)

		// Then: position 1 is empty again and the ledger is still capped
		assert.Equal(t, 1, outcome.Disappeared)
		assert.False(t, outcome.Won)
		assert.Equal(t, entity.EmptyCell, room.Board.At(1))
		assert.Equal(t, entity.MarkO, room.Board.At(7))
		assert.Equal(t, []int{2, 3, 5, 4, 6, 8, 7}, room.Ledger.Moves())
		assert.True(t, room.IsOngoing())
	})

	t.Run("A freed cell can be played again", func(t *testing.T) {
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)
		play(t, room, 1, 2, 3, 5, 4, 6, 8, 7)

		outcome := play(t, room, 1)

		assert.Equal(t, 2, outcome.Disappeared)
		assert.Equal(t, entity.MarkX, room.Board.At(1))
		assert.Equal(t, entity.EmptyCell, room.Board.At(2))
	})

	t.Run("Board always mirrors the ledger", func(t *testing.T) {
		rnd := rand.New(rand.NewPCG(7, 11))

		for game := 0; game < 200; game++ {
			room := newOngoingRoom(t, entity.DefaultLedgerCapacity)

			for move := 0; move < 40 && room.IsOngoing(); move++ {
				free := make([]int, 0, entity.BoardSize)
				for position := entity.FirstPosition; position <= entity.LastPosition; position++ {
					if !room.Board.IsOccupied(position) {
						free = append(free, position)
					}
				}

				play(t, room, free[rnd.IntN(len(free))])

				moves := room.Ledger.Moves()
				slices.Sort(moves)
				require.Equal(t, moves, room.Board.Occupied())
				require.LessOrEqual(t, room.Ledger.Len(), entity.DefaultLedgerCapacity)
				require.Len(t, room.Board.Occupied(), min(room.Ledger.Len(), entity.BoardSize))
			}
		}
	})
}

func TestMakeMove_Terminal(t *testing.T) {
	t.Run("Diagonal win by the first mover", func(t *testing.T) {
		// Given: an ongoing room
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)

		// When: X plays 1, 5, 9 while O plays 2, 3
		outcome := play(t, room, 1, 2, 5, 3, 9)

		// Then: X wins on the main diagonal
		assert.True(t, outcome.Won)
		assert.Equal(t, Line{1, 5, 9}, outcome.Line)
		assert.Equal(t, entity.SeatFirst, outcome.Mover)
		assert.Equal(t, entity.StatusWon, room.Status)
		assert.Equal(t, entity.SeatFirst, room.Winner)
	})

	t.Run("Full board without a line is a draw when the ledger holds nine", func(t *testing.T) {
		room := newOngoingRoom(t, entity.BoardSize)

		outcome := play(t, room, 1, 2, 3, 5, 4, 6, 8, 7, 9)

		assert.True(t, outcome.Draw)
		assert.False(t, outcome.Won)
		assert.Zero(t, outcome.Disappeared)
		assert.Equal(t, entity.StatusDraw, room.Status)
		assert.Empty(t, room.Winner)
	})

	t.Run("Same sequence never fills the board under the default cap", func(t *testing.T) {
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)

		outcome := play(t, room, 1, 2, 3, 5, 4, 6, 8, 7, 9)

		assert.False(t, outcome.Draw)
		assert.True(t, room.IsOngoing())
		assert.Len(t, room.Board.Occupied(), entity.DefaultLedgerCapacity)
	})
}

func TestTimeOut(t *testing.T) {
	t.Run("Awards the other seat", func(t *testing.T) {
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)

		outcome, err := TimeOut(room, entity.SeatFirst)

		require.NoError(t, err)
		assert.Equal(t, ForfeitOutcome{Winner: entity.SeatSecond, WinnerConnectionID: connB, LoserName: "Alice"}, outcome)
		assert.Equal(t, entity.StatusTimedOut, room.Status)
	})

	t.Run("Second seat timing out hands the win to the first", func(t *testing.T) {
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)

		outcome, err := TimeOut(room, entity.SeatSecond)

		require.NoError(t, err)
		assert.Equal(t, connA, outcome.WinnerConnectionID)
		assert.Equal(t, "Bob", outcome.LoserName)
	})

	t.Run("Finished room cannot time out", func(t *testing.T) {
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)
		_, err := TimeOut(room, entity.SeatFirst)
		require.NoError(t, err)

		_, err = TimeOut(room, entity.SeatSecond)

		assert.ErrorIs(t, err, apperror.ErrGameFinished)
	})
}

func TestDisconnect(t *testing.T) {
	t.Run("Awards whoever stayed", func(t *testing.T) {
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)

		outcome, err := Disconnect(room, connB)

		require.NoError(t, err)
		assert.Equal(t, ForfeitOutcome{Winner: entity.SeatFirst, WinnerConnectionID: connA, LoserName: "Bob"}, outcome)
		assert.Equal(t, entity.StatusDisconnected, room.Status)
	})

	t.Run("Creator leaving a waiting room has no winner connection", func(t *testing.T) {
		room := entity.NewRoom("123456", entity.Player{ConnectionID: connA, Name: "Alice"}, 5, entity.DefaultLedgerCapacity)

		outcome, err := Disconnect(room, connA)

		require.NoError(t, err)
		assert.Empty(t, outcome.WinnerConnectionID)
		assert.Equal(t, "Alice", outcome.LoserName)
	})

	t.Run("Unknown connection is refused", func(t *testing.T) {
		room := newOngoingRoom(t, entity.DefaultLedgerCapacity)

		_, err := Disconnect(room, "stranger")

		assert.ErrorIs(t, err, apperror.ErrNoActiveRoom)
		assert.True(t, room.IsOngoing())
	})
}
