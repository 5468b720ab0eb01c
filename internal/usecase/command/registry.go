package command

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Registry is the immutable-per-session command table. Names and aliases
// are case-folded at construction; Resolve is case-insensitive.
type Registry struct {
	entries []Entry
}

// NewRegistry normalizes the supplied commands and overlays the fixed
// console-only help and exit entries, which always take precedence over
// same-named supplied commands.
func NewRegistry(builtins []Entry) *Registry {
	reserved := map[string]bool{"help": true, "exit": true}

	entries := make([]Entry, 0, len(builtins)+2)
	for _, e := range builtins {
		e.Name = strings.ToLower(e.Name)
		if reserved[e.Name] {
			continue
		}
		for i, a := range e.Aliases {
			e.Aliases[i] = strings.ToLower(a)
		}
		entries = append(entries, e)
	}

	entries = append(entries,
		Entry{
			Name:        "help",
			Description: "list available commands",
			Usage:       "help",
			Aliases:     []string{"?", "h"},
			Handler:     helpHandler,
		},
		Entry{
			Name:        "exit",
			Description: "terminate the supervisor and all agents",
			Usage:       "exit",
			Aliases:     []string{"quit"},
			Handler:     exitHandler,
		},
	)

	return &Registry{entries: entries}
}

// Resolve maps a token to the canonical command name, matching names and
// aliases case-insensitively. Lookup is linear; first match wins.
func (r *Registry) Resolve(token string) (string, bool) {
	token = strings.ToLower(token)
	for _, e := range r.entries {
		if e.Name == token {
			return e.Name, true
		}
		for _, a := range e.Aliases {
			if a == token {
				return e.Name, true
			}
		}
	}
	return "", false
}

// Entry returns the entry for a canonical name.
func (r *Registry) Entry(name string) (Entry, bool) {
	for _, e := range r.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns all entries sorted by name.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func helpHandler(_ context.Context, env *Env, _ []string) error {
	for _, e := range env.Commands.Entries() {
		line := fmt.Sprintf("  %c%-28s %s", Prefix, e.Usage, e.Description)
		if len(e.Aliases) > 0 {
			line += fmt.Sprintf(" (aliases: %s)", strings.Join(e.Aliases, ", "))
		}
		fmt.Fprintln(env.Out, line)
	}
	return nil
}

func exitHandler(_ context.Context, env *Env, _ []string) error {
	fmt.Fprintln(env.Out, "shutting down")
	env.Exit(0)
	return nil
}
