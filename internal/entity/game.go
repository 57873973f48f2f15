package entity

import (
	"time"

	"github.com/jaminalder/tictactoe-engine/internal/domain"
)

// Game is a live session: the engine snapshot plus bookkeeping.
type Game struct {
	ID      string       `json:"id"`
	State   domain.State `json:"state"`
	Created time.Time    `json:"created"`
	Updated time.Time    `json:"updated"`
}

// Status renders the status line shown above the board.
func (that *Game) Status() string {
	return that.State.StatusLine()
}
