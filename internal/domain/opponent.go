package domain

import "math/rand/v2"

// RandomMove picks one of the empty cells of b uniformly. A nil rng uses the
// package-level source. b must have at least one empty cell.
func RandomMove(b Board, rng *rand.Rand) int {
	choices := EmptyIndices(b)
	if len(choices) == 0 {
		panic("domain: RandomMove called on a full board")
	}
	if rng == nil {
		return choices[rand.IntN(len(choices))]
	}
	return choices[rng.IntN(len(choices))]
}

// Opponent chooses the computer's move for player on a non-terminal board.
type Opponent interface {
	Move(b Board, player Cell) int
}

// RandomOpponent plays uniformly random legal moves.
type RandomOpponent struct {
	Rand *rand.Rand
}

func (o RandomOpponent) Move(b Board, _ Cell) int { return RandomMove(b, o.Rand) }

// PerfectOpponent plays the minimax move.
type PerfectOpponent struct{}

func (PerfectOpponent) Move(b Board, player Cell) int { return BestMove(b, player) }

// OpponentFor returns the strategy configured for mode, or nil in two-player
// mode.
func OpponentFor(mode Mode, rng *rand.Rand) Opponent {
	switch mode {
	case EasyAI:
		return RandomOpponent{Rand: rng}
	case HardAI:
		return PerfectOpponent{}
	default:
		return nil
	}
}
