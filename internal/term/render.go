package term

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/jaminalder/tictactoe-engine/internal/domain"
)

const (
	colorX = "9"  // bright red
	colorO = "12" // bright blue
)

// Render prints the board with cell numbers on empty squares, followed by
// the status line. Marks are coloured and the winning line is reversed when
// the writer supports it.
func Render(w io.Writer, st domain.State, opts ...termenv.OutputOption) error {
	out := termenv.NewOutput(w, opts...)

	var sb strings.Builder
	for row := 0; row < 3; row++ {
		if row > 0 {
			sb.WriteString("---+---+---\n")
		}
		for col := 0; col < 3; col++ {
			i := row*3 + col
			if col > 0 {
				sb.WriteString("|")
			}
			sb.WriteString(" " + cell(out, st, i) + " ")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(st.StatusLine())
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func cell(out *termenv.Output, st domain.State, i int) string {
	var s termenv.Style
	switch st.Board[i] {
	case domain.X:
		s = out.String("X").Foreground(out.Color(colorX)).Bold()
	case domain.O:
		s = out.String("O").Foreground(out.Color(colorO)).Bold()
	default:
		return out.String(fmt.Sprint(i)).Faint().String()
	}
	if st.Result.Status == domain.Win && st.Result.Contains(i) {
		s = s.Reverse()
	}
	return s.String()
}
