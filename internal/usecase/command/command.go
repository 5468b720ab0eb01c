// Package command implements the console's command registry and dispatcher:
// a case-insensitive, alias-aware table of operator commands, a prefix line
// parser, and a dispatch path that contains every handler failure.
package command

import (
	"context"
	"io"

	"fleetd/internal/domain"
	"fleetd/internal/usecase/fleet"
)

// Prefix marks a console line as a command. Lines without it are ignored
// by the dispatcher.
const Prefix = '!'

// Handler executes one console command. Failures are reported to the
// operator by the dispatcher, never propagated.
type Handler func(ctx context.Context, env *Env, args []string) error

// Entry describes one registered command. Immutable once registered; the
// registry case-folds Name and Aliases at construction.
type Entry struct {
	Name        string
	Description string
	Usage       string
	Aliases     []string
	Handler     Handler
}

// Env is the shared context handed to every handler.
type Env struct {
	Fleet    *fleet.Registry
	Commands *Registry
	Notifier domain.Notifier
	Journal  domain.JournalReader // may be nil when the journal is disabled
	Out      io.Writer
	Exit     func(code int) // requests whole-program termination
}
