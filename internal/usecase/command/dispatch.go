package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fleetd/internal/infra/tracer"
)

// ParseLine splits a console line into a command token and arguments. A
// line is a command only if, after trimming, it begins with Prefix; the
// token runs to the first whitespace and the remainder is whitespace-split.
func ParseLine(line string) (token string, args []string, ok bool) {
	line = strings.TrimSpace(line)
	if len(line) < 2 || rune(line[0]) != Prefix {
		return "", nil, false
	}
	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

// Dispatcher routes parsed console lines to handlers. Handler errors and
// panics are reported to the operator and never escape.
type Dispatcher struct {
	reg    *Registry
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher over reg.
func NewDispatcher(reg *Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{reg: reg, logger: logger}
}

// Dispatch parses line and invokes the resolved handler with env. Lines
// that are not commands are a no-op; unknown commands are reported.
func (d *Dispatcher) Dispatch(ctx context.Context, line string, env *Env) {
	token, args, ok := ParseLine(line)
	if !ok {
		return
	}

	name, found := d.reg.Resolve(token)
	if !found {
		fmt.Fprintf(env.Out, "unknown command %q, try %chelp\n", token, Prefix)
		return
	}
	entry, _ := d.reg.Entry(name)

	ctx, span := tracer.StartSpan(ctx, "command.dispatch")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("command handler panicked", "command", name, "panic", r)
			fmt.Fprintf(env.Out, "command %q failed: %v\n", name, r)
		}
	}()

	if err := entry.Handler(ctx, env, args); err != nil {
		tracer.RecordError(span, err)
		d.logger.Warn("command failed", "command", name, "error", err)
		fmt.Fprintf(env.Out, "command %q failed: %v\n", name, err)
	}
}
