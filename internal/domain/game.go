package domain

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other mark. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// Board is a fixed 3x3 board stored row-major.
type Board [9]Cell

// Line is a triple of board indices forming a win condition.
type Line [3]int

// lines lists the winning lines: rows, then columns, then diagonals.
var lines = [8]Line{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// Status classifies a board.
type Status uint8

const (
	InProgress Status = iota
	Win
	Draw
)

func (s Status) String() string {
	switch s {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Result is the outcome of evaluating a board. Winner and Line are only
// meaningful when Status is Win.
type Result struct {
	Status Status `json:"status"`
	Winner Cell   `json:"winner"`
	Line   Line   `json:"line"`
}

// Terminal reports whether the game has ended.
func (r Result) Terminal() bool { return r.Status != InProgress }

// Contains reports whether idx is part of the winning line.
func (r Result) Contains(idx int) bool {
	if r.Status != Win {
		return false
	}
	for _, i := range r.Line {
		if i == idx {
			return true
		}
	}
	return false
}

// EmptyIndices returns the indices of empty cells in ascending order.
func EmptyIndices(b Board) []int {
	out := make([]int, 0, len(b))
	for i, c := range b {
		if c == Empty {
			out = append(out, i)
		}
	}
	return out
}

// Full reports whether every cell is occupied.
func (b Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// Count returns how many cells hold c.
func (b Board) Count(c Cell) int {
	n := 0
	for _, v := range b {
		if v == c {
			n++
		}
	}
	return n
}

// Lines returns a copy of the winning lines in evaluation order.
func Lines() [8]Line { return lines }

// Evaluate reports the first completed line in Lines order, a draw when the
// board is full, or InProgress otherwise.
func Evaluate(b Board) Result {
	for _, ln := range lines {
		a := b[ln[0]]
		if a != Empty && a == b[ln[1]] && a == b[ln[2]] {
			return Result{Status: Win, Winner: a, Line: ln}
		}
	}
	if b.Full() {
		return Result{Status: Draw}
	}
	return Result{Status: InProgress}
}
