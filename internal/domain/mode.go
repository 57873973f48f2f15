package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects who controls O.
type Mode uint8

const (
	TwoPlayer Mode = iota
	EasyAI
	HardAI
)

var ErrUnknownMode = errors.New("unknown mode")

func (m Mode) String() string {
	switch m {
	case EasyAI:
		return "easy"
	case HardAI:
		return "hard"
	default:
		return "pvp"
	}
}

// Label is the human readable suffix shown next to the game status.
func (m Mode) Label() string {
	switch m {
	case EasyAI:
		return "vs AI (Easy)"
	case HardAI:
		return "vs AI (Hard)"
	default:
		return "2 Players"
	}
}

// Computer returns the mark played by the computer, or Empty in two-player
// mode. The human always plays X.
func (m Mode) Computer() Cell {
	if m == EasyAI || m == HardAI {
		return O
	}
	return Empty
}

// ParseMode accepts "pvp", "easy" and "hard" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pvp", "two-player":
		return TwoPlayer, nil
	case "easy":
		return EasyAI, nil
	case "hard":
		return HardAI, nil
	default:
		return TwoPlayer, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (c Cell) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Cell) UnmarshalText(b []byte) error {
	switch string(b) {
	case "":
		*c = Empty
	case "X":
		*c = X
	case "O":
		*c = O
	default:
		return fmt.Errorf("invalid cell %q", b)
	}
	return nil
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "in_progress":
		*s = InProgress
	case "win":
		*s = Win
	case "draw":
		*s = Draw
	default:
		return fmt.Errorf("invalid status %q", b)
	}
	return nil
}
