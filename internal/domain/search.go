package domain

import "fmt"

// Terminal scores, always from O's point of view.
const (
	scoreXWins = -10
	scoreOWins = 10
	scoreDraw  = 0
)

// BestMove returns the index perfect play chooses for player on b.
//
// The search is a plain minimax over the whole remaining tree: O maximises,
// X minimises, and among equally scored moves the lowest index wins. b must
// not be terminal; BestMove panics if it is.
func BestMove(b Board, player Cell) int {
	if player != X && player != O {
		panic(fmt.Sprintf("domain: BestMove called for %q", player))
	}
	if r := Evaluate(b); r.Terminal() {
		panic(fmt.Sprintf("domain: BestMove called on finished board (%s)", r.Status))
	}
	idx, _ := minimax(&b, player)
	return idx
}

// minimax works on the caller's private copy, placing and retracting
// marks in place.
func minimax(b *Board, player Cell) (idx, score int) {
	switch r := Evaluate(*b); r.Status {
	case Win:
		if r.Winner == X {
			return -1, scoreXWins
		}
		return -1, scoreOWins
	case Draw:
		return -1, scoreDraw
	}

	idx = -1
	for i, c := range b {
		if c != Empty {
			continue
		}
		b[i] = player
		_, s := minimax(b, player.Opponent())
		b[i] = Empty

		if idx == -1 || (player == O && s > score) || (player == X && s < score) {
			idx, score = i, s
		}
	}
	return idx, score
}
