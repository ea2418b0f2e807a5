package entity

// DefaultLedgerCapacity is the number of live moves kept on the board before
// the oldest one disappears.
const DefaultLedgerCapacity = 7

// MoveLedger records live moves in play order and never holds more than its
// capacity.
type MoveLedger struct {
	capacity int
	moves    []int
}

func NewMoveLedger(capacity int) *MoveLedger {
	if capacity < 1 {
		capacity = DefaultLedgerCapacity
	}

	return &MoveLedger{
		capacity: capacity,
		moves:    make([]int, 0, capacity),
	}
}

// Push appends position. When the ledger is already full the oldest move is
// evicted first and returned with evicted set to true.
func (that *MoveLedger) Push(position int) (oldest int, evicted bool) {
	if len(that.moves) == that.capacity {
		oldest = that.moves[0]
		// shift in place, the backing array never grows past capacity
		copy(that.moves, that.moves[1:])
		that.moves = that.moves[:len(that.moves)-1]
		evicted = true
	}

	that.moves = append(that.moves, position)

	return oldest, evicted
}

// Oldest returns the move that the next Push would evict, if any.
func (that *MoveLedger) Oldest() (int, bool) {
	if len(that.moves) < that.capacity || len(that.moves) == 0 {
		return 0, false
	}

	return that.moves[0], true
}

func (that *MoveLedger) Moves() []int {
	moves := make([]int, len(that.moves))
	copy(moves, that.moves)

	return moves
}

func (that *MoveLedger) Len() int {
	return len(that.moves)
}

func (that *MoveLedger) Capacity() int {
	return that.capacity
}
