package domain

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// Reasons a move is rejected. They describe the rejection; SubmitMove never
// returns them as failures.
var (
	ErrOutOfBounds  = errors.New("out of bounds")
	ErrOccupied     = errors.New("cell occupied")
	ErrGameOver     = errors.New("game over")
	ErrComputerTurn = errors.New("computer to move")
)

// State is a snapshot of a game owned by a Controller.
type State struct {
	Board   Board  `json:"board"`
	Current Cell   `json:"current"`
	Over    bool   `json:"over"`
	Mode    Mode   `json:"mode"`
	Result  Result `json:"result"`
	// Version increases on every accepted move and on every restart.
	Version uint64 `json:"version"`
}

// StatusLine is the human readable summary shown next to the board.
func (st State) StatusLine() string {
	switch st.Result.Status {
	case Win:
		return "Player " + st.Result.Winner.String() + " wins! — " + st.Mode.Label()
	case Draw:
		return "It’s a draw! — " + st.Mode.Label()
	default:
		return "Player " + st.Current.String() + "’s turn — " + st.Mode.Label()
	}
}

// OutcomeKind classifies the effect of a move submission.
type OutcomeKind uint8

const (
	Rejected OutcomeKind = iota
	Accepted
	GameEnded
)

func (k OutcomeKind) String() string {
	switch k {
	case Accepted:
		return "accepted"
	case GameEnded:
		return "game_ended"
	default:
		return "rejected"
	}
}

// Outcome describes what a submission did.
type Outcome struct {
	Kind OutcomeKind
	// Index is the submitted human move, -1 for a computer-only move.
	Index int
	// Computer is the computer's reply, -1 if it did not move.
	Computer int
	// Next is the player to move when Kind is Accepted.
	Next   Cell
	Result Result
	// Reason is set when Kind is Rejected.
	Reason error
}

// Option configures a Controller.
type Option func(*Controller)

// WithRand sets the source used by the easy opponent.
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) { c.rng = rng }
}

// Controller owns the state of a single game and sequences turns. It is not
// safe for concurrent use.
type Controller struct {
	state    State
	rng      *rand.Rand
	opponent Opponent
}

// NewController returns a two-player game with X to move.
func NewController(opts ...Option) *Controller {
	c := &Controller{}
	for _, opt := range opts {
		opt(c)
	}
	c.state = State{Current: X, Mode: TwoPlayer}
	return c
}

// Restore rebuilds a controller from a snapshot. The result is recomputed
// from the board.
func Restore(st State, opts ...Option) *Controller {
	c := NewController(opts...)
	st.Result = Evaluate(st.Board)
	st.Over = st.Result.Terminal()
	if st.Current != X && st.Current != O {
		st.Current = X
	}
	c.state = st
	c.opponent = OpponentFor(st.Mode, c.rng)
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State { return c.state }

// Restart clears the board and starts a new game in mode with X to move.
func (c *Controller) Restart(mode Mode) {
	c.state = State{
		Current: X,
		Mode:    mode,
		Version: c.state.Version + 1,
	}
	c.opponent = OpponentFor(mode, c.rng)
}

// ComputerPending reports whether the next move belongs to the computer.
func (c *Controller) ComputerPending() bool {
	return !c.state.Over && c.opponent != nil && c.state.Current == c.state.Mode.Computer()
}

// Play applies a human move without letting the computer reply. It is
// rejected while the computer is to move.
func (c *Controller) Play(i int) Outcome {
	if c.ComputerPending() {
		return rejected(i, ErrComputerTurn)
	}
	return c.apply(i)
}

// SubmitMove applies a human move and, if the computer is to move
// afterwards, its reply. The outcome reflects the final state.
func (c *Controller) SubmitMove(i int) Outcome {
	out := c.Play(i)
	if out.Kind != Accepted || !c.ComputerPending() {
		return out
	}
	reply := c.computer()
	reply.Index = i
	return reply
}

// ComputerMove plays the computer's move if one is pending and the game is
// still at version. It reports false and changes nothing otherwise.
func (c *Controller) ComputerMove(version uint64) (Outcome, bool) {
	if version != c.state.Version || !c.ComputerPending() {
		return Outcome{Kind: Rejected, Index: -1, Computer: -1}, false
	}
	return c.computer(), true
}

func (c *Controller) computer() Outcome {
	idx := c.opponent.Move(c.state.Board, c.state.Current)
	out := c.apply(idx)
	if out.Kind == Rejected {
		panic(fmt.Sprintf("domain: opponent chose illegal cell %d: %v", idx, out.Reason))
	}
	out.Index, out.Computer = -1, idx
	return out
}

func (c *Controller) apply(i int) Outcome {
	if c.state.Over {
		return rejected(i, ErrGameOver)
	}
	if i < 0 || i >= len(c.state.Board) {
		return rejected(i, ErrOutOfBounds)
	}
	if c.state.Board[i] != Empty {
		return rejected(i, ErrOccupied)
	}

	c.state.Board[i] = c.state.Current
	c.state.Version++
	c.state.Result = Evaluate(c.state.Board)
	if c.state.Result.Terminal() {
		c.state.Over = true
		return Outcome{Kind: GameEnded, Index: i, Computer: -1, Result: c.state.Result}
	}

	c.state.Current = c.state.Current.Opponent()
	return Outcome{Kind: Accepted, Index: i, Computer: -1, Next: c.state.Current, Result: c.state.Result}
}

func rejected(i int, reason error) Outcome {
	return Outcome{Kind: Rejected, Index: i, Computer: -1, Reason: reason}
}
