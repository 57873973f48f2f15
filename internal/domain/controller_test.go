package domain

import (
	"errors"
	"math/rand/v2"
	"testing"
)

// helper to apply a sequence of moves
func playMoves(t *testing.T, c *Controller, moves []int) Outcome {
	t.Helper()
	var out Outcome
	for i, m := range moves {
		out = c.SubmitMove(m)
		if out.Kind == Rejected {
			t.Fatalf("move %d (%d) rejected: %v", i, m, out.Reason)
		}
	}
	return out
}

func TestNewControllerInitialState(t *testing.T) {
	c := NewController()
	st := c.State()
	if st.Current != X {
		t.Fatalf("expected initial turn X, got %v", st.Current)
	}
	if st.Over {
		t.Fatalf("expected game not over")
	}
	if st.Mode != TwoPlayer {
		t.Fatalf("expected two-player mode, got %v", st.Mode)
	}
	if st.Board != (Board{}) {
		t.Fatalf("expected empty board, got %v", st.Board)
	}
}

func TestSubmitMoveFlipsTurn(t *testing.T) {
	c := NewController()
	out := c.SubmitMove(4)
	if out.Kind != Accepted || out.Next != O || out.Computer != -1 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if st := c.State(); st.Board[4] != X || st.Current != O || st.Version != 1 {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestSubmitMoveRejections(t *testing.T) {
	c := NewController()
	playMoves(t, c, []int{0})
	before := c.State()

	cases := []struct {
		idx    int
		reason error
	}{
		{-1, ErrOutOfBounds},
		{9, ErrOutOfBounds},
		{42, ErrOutOfBounds},
		{0, ErrOccupied},
	}
	for _, tc := range cases {
		out := c.SubmitMove(tc.idx)
		if out.Kind != Rejected || !errors.Is(out.Reason, tc.reason) {
			t.Fatalf("SubmitMove(%d) = %+v, want rejection %v", tc.idx, out, tc.reason)
		}
		if c.State() != before {
			t.Fatalf("state changed by rejected move %d", tc.idx)
		}
	}
}

func TestWinSequence(t *testing.T) {
	c := NewController()
	out := playMoves(t, c, []int{0, 4, 1, 8, 2})
	if out.Kind != GameEnded {
		t.Fatalf("expected game to end, got %+v", out)
	}
	want := Result{Status: Win, Winner: X, Line: Line{0, 1, 2}}
	if out.Result != want {
		t.Fatalf("expected %+v, got %+v", want, out.Result)
	}
	st := c.State()
	if !st.Over || st.Result != want {
		t.Fatalf("expected finished state with %+v, got %+v", want, st)
	}
}

func TestDrawSequence(t *testing.T) {
	c := NewController()
	out := playMoves(t, c, []int{0, 1, 2, 4, 3, 5, 7, 6, 8})
	if out.Kind != GameEnded || out.Result.Status != Draw {
		t.Fatalf("expected a draw, got %+v", out)
	}
	if len(EmptyIndices(c.State().Board)) != 0 {
		t.Fatalf("expected a full board")
	}
}

func TestGameOverBlocksFurtherMoves(t *testing.T) {
	c := NewController()
	playMoves(t, c, []int{0, 3, 1, 4, 2})
	before := c.State()
	out := c.SubmitMove(8)
	if out.Kind != Rejected || !errors.Is(out.Reason, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %+v", out)
	}
	if c.State() != before {
		t.Fatalf("state changed after game over")
	}
}

func TestRestartClearsFinishedGame(t *testing.T) {
	c := NewController()
	playMoves(t, c, []int{0, 3, 1, 4, 2})
	v := c.State().Version

	c.Restart(HardAI)
	st := c.State()
	if st.Over || st.Board != (Board{}) || st.Current != X || st.Mode != HardAI {
		t.Fatalf("unexpected state after restart: %+v", st)
	}
	if st.Result.Status != InProgress {
		t.Fatalf("expected in-progress result, got %v", st.Result.Status)
	}
	if st.Version <= v {
		t.Fatalf("expected version to grow past %d, got %d", v, st.Version)
	}
}

func TestRestartMidGame(t *testing.T) {
	c := NewController()
	playMoves(t, c, []int{0, 4})
	c.Restart(TwoPlayer)
	if st := c.State(); st.Board != (Board{}) || st.Over || st.Current != X {
		t.Fatalf("unexpected state after restart: %+v", st)
	}
}

func TestHardModeRepliesImmediately(t *testing.T) {
	c := NewController()
	c.Restart(HardAI)
	out := c.SubmitMove(0)
	if out.Kind != Accepted || out.Index != 0 || out.Next != X {
		t.Fatalf("unexpected outcome %+v", out)
	}
	// the only reply to a corner opening that does not lose is the centre
	if out.Computer != 4 {
		t.Fatalf("expected computer to take the centre, got %d", out.Computer)
	}
	st := c.State()
	if st.Board[0] != X || st.Board[4] != O || st.Current != X {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestHardModeBlocksAndNeverLoses(t *testing.T) {
	c := NewController()
	c.Restart(HardAI)
	playMoves(t, c, []int{0})
	out := c.SubmitMove(1)
	if out.Computer != 2 {
		t.Fatalf("expected computer to block at 2, got %d", out.Computer)
	}
	for !c.State().Over {
		playMoves(t, c, EmptyIndices(c.State().Board)[:1])
	}
	if r := c.State().Result; r.Status == Win && r.Winner == X {
		t.Fatalf("human beat the hard computer: %+v", c.State())
	}
}

func TestEasyModePlaysEmptyCell(t *testing.T) {
	c := NewController(WithRand(rand.New(rand.NewPCG(1, 2))))
	c.Restart(EasyAI)
	for !c.State().Over {
		before := c.State().Board
		out := c.SubmitMove(EmptyIndices(before)[0])
		if out.Kind == Rejected {
			t.Fatalf("unexpected rejection %+v", out)
		}
		if out.Computer >= 0 && before[out.Computer] != Empty {
			t.Fatalf("computer played occupied cell %d", out.Computer)
		}
	}
	st := c.State()
	if st.Board.Count(X)-st.Board.Count(O) > 1 || st.Board.Count(O) > st.Board.Count(X) {
		t.Fatalf("marks out of balance: %v", st.Board)
	}
}

func TestTwoPlayerNeverCallsComputer(t *testing.T) {
	c := NewController()
	out := c.SubmitMove(0)
	if out.Computer != -1 || c.ComputerPending() {
		t.Fatalf("computer moved in two-player mode: %+v", out)
	}
}

func TestPlayDefersComputer(t *testing.T) {
	c := NewController()
	c.Restart(HardAI)
	out := c.Play(0)
	if out.Kind != Accepted || out.Next != O || out.Computer != -1 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if !c.ComputerPending() {
		t.Fatalf("expected computer move to be pending")
	}

	// no human move while the computer is to move
	before := c.State()
	out = c.Play(1)
	if out.Kind != Rejected || !errors.Is(out.Reason, ErrComputerTurn) {
		t.Fatalf("expected ErrComputerTurn, got %+v", out)
	}
	if c.State() != before {
		t.Fatalf("state changed by rejected move")
	}

	out, ok := c.ComputerMove(before.Version)
	if !ok || out.Computer != 4 || out.Index != -1 || out.Next != X {
		t.Fatalf("unexpected computer outcome %+v ok=%v", out, ok)
	}
	if c.ComputerPending() {
		t.Fatalf("computer move still pending")
	}
}

func TestStaleComputerMoveIsDiscarded(t *testing.T) {
	c := NewController()
	c.Restart(HardAI)
	c.Play(0)
	stale := c.State().Version

	c.Restart(HardAI)
	if _, ok := c.ComputerMove(stale); ok {
		t.Fatalf("stale computer move applied after restart")
	}
	if c.State().Board != (Board{}) {
		t.Fatalf("board changed by stale computer move")
	}

	// the computer is to move again, but under a newer version
	c.Play(8)
	if _, ok := c.ComputerMove(stale); ok {
		t.Fatalf("stale token accepted")
	}
}

func TestRestoreRecomputesResult(t *testing.T) {
	c := NewController()
	playMoves(t, c, []int{0, 3, 1, 4})
	st := c.State()
	st.Over = true
	st.Result = Result{}

	r := Restore(st)
	got := r.State()
	if got.Over || got.Result.Status != InProgress {
		t.Fatalf("expected restored game in progress, got %+v", got)
	}
	out := r.SubmitMove(2)
	if out.Kind != GameEnded || out.Result.Winner != X {
		t.Fatalf("expected X to win after restore, got %+v", out)
	}
}

func TestRestoreKeepsComputerOpponent(t *testing.T) {
	c := NewController()
	c.Restart(HardAI)
	c.Play(0)

	r := Restore(c.State())
	if !r.ComputerPending() {
		t.Fatalf("expected pending computer move after restore")
	}
	if _, ok := r.ComputerMove(r.State().Version); !ok {
		t.Fatalf("expected computer move to apply after restore")
	}
}
