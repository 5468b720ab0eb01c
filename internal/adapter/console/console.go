// Package console is the operator's line-oriented control surface: it reads
// prefix-delimited commands, dispatches them against the fleet, and ends on
// the exit command or when input closes.
package console

import (
	"bufio"
	"context"
	"io"
	"log/slog"

	"fleetd/internal/usecase/command"
)

// Loop reads console lines until exit or EOF.
type Loop struct {
	in         io.Reader
	dispatcher *command.Dispatcher
	env        *command.Env
	logger     *slog.Logger
	quit       chan int
}

// NewLoop builds a console loop. The returned loop installs itself as
// env.Exit so the exit command can end it with a code.
func NewLoop(in io.Reader, dispatcher *command.Dispatcher, env *command.Env, logger *slog.Logger) *Loop {
	l := &Loop{
		in:         in,
		dispatcher: dispatcher,
		env:        env,
		logger:     logger,
		quit:       make(chan int, 1),
	}
	env.Exit = l.requestExit
	return l
}

func (l *Loop) requestExit(code int) {
	select {
	case l.quit <- code:
	default:
	}
}

// Run drives the loop and returns the requested exit code: the exit
// command's code, or 0 on input EOF or context cancellation.
func (l *Loop) Run(ctx context.Context) int {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(l.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			l.logger.Warn("console input error", "error", err)
		}
	}()

	for {
		select {
		case code := <-l.quit:
			return code
		case <-ctx.Done():
			return 0
		case line, ok := <-lines:
			if !ok {
				l.logger.Info("console input closed")
				return 0
			}
			l.dispatcher.Dispatch(ctx, line, l.env)
			// The exit handler fires inside Dispatch; honor it before
			// blocking on the next line.
			select {
			case code := <-l.quit:
				return code
			default:
			}
		}
	}
}
