package command

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		token string
		args  []string
		ok    bool
	}{
		{name: "plain command", line: "!list", token: "list", ok: true},
		{name: "command with args", line: "!stop alpha", token: "stop", args: []string{"alpha"}, ok: true},
		{name: "surrounding whitespace", line: "  !say alpha hello there  ", token: "say", args: []string{"alpha", "hello", "there"}, ok: true},
		{name: "not a command", line: "just chatting"},
		{name: "bare prefix", line: "!"},
		{name: "prefix then whitespace", line: "!   "},
		{name: "empty line", line: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, args, ok := ParseLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.token, token)
			assert.Equal(t, tt.args, args)
		})
	}
}

func newTestDispatcher(builtins []Entry) (*Dispatcher, *Registry) {
	reg := NewRegistry(builtins)
	return NewDispatcher(reg, slog.New(slog.NewTextHandler(io.Discard, nil))), reg
}

func TestDispatchIgnoresNonCommands(t *testing.T) {
	called := false
	d, reg := newTestDispatcher([]Entry{
		{Name: "ping", Handler: func(context.Context, *Env, []string) error {
			called = true
			return nil
		}},
	})

	var out bytes.Buffer
	d.Dispatch(context.Background(), "ping without prefix", &Env{Commands: reg, Out: &out})

	assert.False(t, called)
	assert.Empty(t, out.String())
}

func TestDispatchUnknownCommand(t *testing.T) {
	d, reg := newTestDispatcher(nil)

	var out bytes.Buffer
	d.Dispatch(context.Background(), "!frobnicate", &Env{Commands: reg, Out: &out})

	assert.Contains(t, out.String(), `unknown command "frobnicate"`)
	assert.Contains(t, out.String(), "!help")
}

func TestDispatchPassesArgs(t *testing.T) {
	var got []string
	d, reg := newTestDispatcher([]Entry{
		{Name: "stop", Handler: func(_ context.Context, _ *Env, args []string) error {
			got = args
			return nil
		}},
	})

	var out bytes.Buffer
	d.Dispatch(context.Background(), "!STOP alpha", &Env{Commands: reg, Out: &out})

	require.Equal(t, []string{"alpha"}, got)
}

func TestDispatchContainsHandlerError(t *testing.T) {
	d, reg := newTestDispatcher([]Entry{
		{Name: "boom", Handler: func(context.Context, *Env, []string) error {
			return errors.New("agent unavailable")
		}},
	})

	var out bytes.Buffer
	d.Dispatch(context.Background(), "!boom", &Env{Commands: reg, Out: &out})

	assert.Contains(t, out.String(), `command "boom" failed: agent unavailable`)
}

func TestDispatchContainsHandlerPanic(t *testing.T) {
	d, reg := newTestDispatcher([]Entry{
		{Name: "crash", Handler: func(context.Context, *Env, []string) error {
			panic("handler bug")
		}},
	})

	var out bytes.Buffer
	require.NotPanics(t, func() {
		d.Dispatch(context.Background(), "!crash", &Env{Commands: reg, Out: &out})
	})
	assert.Contains(t, out.String(), `command "crash" failed: handler bug`)
}
