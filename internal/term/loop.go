package term

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/muesli/termenv"

	"github.com/jaminalder/tictactoe-engine/internal/domain"
)

const help = `commands:
  0-8                      place a mark
  restart [pvp|easy|hard]  start over, optionally switching mode
  quit                     leave
`

// Loop plays ctrl interactively: it reads one command per line from in and
// redraws the board on out after each one. It returns nil on quit or end of
// input and ctx.Err() when ctx is cancelled.
func Loop(ctx context.Context, in io.Reader, out io.Writer, ctrl *domain.Controller, opts ...termenv.OutputOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	if err := Render(out, ctrl.State(), opts...); err != nil {
		return err
	}
	for {
		prompt(out)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			quit, err := handle(out, ctrl, line, opts...)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

func prompt(out io.Writer) {
	_, _ = io.WriteString(out, "> ")
}

var errUsage = errors.New("unknown command, type help")

func handle(out io.Writer, ctrl *domain.Controller, line string, opts ...termenv.OutputOption) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch cmd := strings.ToLower(fields[0]); cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		_, err := io.WriteString(out, help)
		return false, err
	case "restart", "r":
		mode := ctrl.State().Mode
		if len(fields) > 1 {
			m, err := domain.ParseMode(fields[1])
			if err != nil {
				return false, say(out, err)
			}
			mode = m
		}
		ctrl.Restart(mode)
	default:
		i, err := strconv.Atoi(cmd)
		if err != nil {
			return false, say(out, errUsage)
		}
		res := ctrl.SubmitMove(i)
		if res.Kind == domain.Rejected {
			return false, say(out, res.Reason)
		}
		if res.Computer >= 0 {
			if _, err = fmt.Fprintf(out, "computer plays %d\n", res.Computer); err != nil {
				return false, err
			}
		}
	}
	return false, Render(out, ctrl.State(), opts...)
}

func say(out io.Writer, err error) error {
	_, werr := fmt.Fprintf(out, "error: %v\n", err)
	return werr
}
