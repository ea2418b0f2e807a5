package entity

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rocketscienceinc/vanishing-tictactoe/internal/apperror"
)

type Mark string

const (
	MarkX Mark = "X"
	MarkO Mark = "O"

	EmptyCell Mark = ""
)

const (
	FirstPosition = 1
	LastPosition  = 9
	BoardSize     = LastPosition - FirstPosition + 1
)

// Board holds the nine cells of the grid. Position p lives at index p-1.
type Board [BoardSize]Mark

func ValidatePosition(position int) error {
	if position < FirstPosition || position > LastPosition {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidCell, position)
	}

	return nil
}

// At returns the occupant of position, EmptyCell for an out-of-range position.
func (that *Board) At(position int) Mark {
	if ValidatePosition(position) != nil {
		return EmptyCell
	}

	return that[position-1]
}

func (that *Board) IsOccupied(position int) bool {
	return that.At(position) != EmptyCell
}

func (that *Board) Place(position int, mark Mark) {
	that[position-1] = mark
}

func (that *Board) Clear(position int) {
	that[position-1] = EmptyCell
}

func (that *Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// Occupied returns the occupied positions in ascending order.
func (that *Board) Occupied() []int {
	positions := make([]int, 0, BoardSize)
	for i, cell := range that {
		if cell != EmptyCell {
			positions = append(positions, i+1)
		}
	}

	return positions
}

// MarshalJSON renders the board as {"1": null, "2": "X", ...}.
func (that Board) MarshalJSON() ([]byte, error) {
	cells := make(map[string]*Mark, BoardSize)
	for i := range that {
		key := strconv.Itoa(i + 1)
		if that[i] == EmptyCell {
			cells[key] = nil
			continue
		}

		mark := that[i]
		cells[key] = &mark
	}

	return json.Marshal(cells)
}

func (that *Board) UnmarshalJSON(data []byte) error {
	var cells map[string]*Mark
	if err := json.Unmarshal(data, &cells); err != nil {
		return fmt.Errorf("failed to unmarshal board: %w", err)
	}

	*that = Board{}
	for key, mark := range cells {
		position, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("%w: %q", apperror.ErrInvalidCell, key)
		}

		if err = ValidatePosition(position); err != nil {
			return err
		}

		if mark != nil {
			that.Place(position, *mark)
		}
	}

	return nil
}
