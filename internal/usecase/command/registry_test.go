package command

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(context.Context, *Env, []string) error { return nil }

func TestResolveCaseInsensitive(t *testing.T) {
	reg := NewRegistry([]Entry{
		{Name: "Status", Aliases: []string{"ST"}, Handler: noopHandler},
	})

	for _, token := range []string{"status", "Status", "STATUS", "st", "ST"} {
		name, ok := reg.Resolve(token)
		require.True(t, ok, "token %q", token)
		assert.Equal(t, "status", name, "token %q", token)
	}
}

func TestResolveBuiltinAliases(t *testing.T) {
	reg := NewRegistry(nil)

	for _, token := range []string{"help", "?", "h", "H"} {
		name, ok := reg.Resolve(token)
		require.True(t, ok, "token %q", token)
		assert.Equal(t, "help", name, "token %q", token)
	}
	name, ok := reg.Resolve("quit")
	require.True(t, ok)
	assert.Equal(t, "exit", name)
}

func TestResolveUnknown(t *testing.T) {
	reg := NewRegistry(nil)
	_, ok := reg.Resolve("frobnicate")
	assert.False(t, ok)
}

func TestReservedNamesCannotBeShadowed(t *testing.T) {
	called := false
	reg := NewRegistry([]Entry{
		{Name: "help", Description: "shadow", Handler: func(context.Context, *Env, []string) error {
			called = true
			return nil
		}},
	})

	entry, ok := reg.Entry("help")
	require.True(t, ok)
	assert.Equal(t, "list available commands", entry.Description)

	var out bytes.Buffer
	env := &Env{Commands: reg, Out: &out}
	require.NoError(t, entry.Handler(context.Background(), env, nil))
	assert.False(t, called, "supplied help handler must never run")
	assert.Contains(t, out.String(), "exit")
}

func TestEntriesSorted(t *testing.T) {
	reg := NewRegistry([]Entry{
		{Name: "stop", Handler: noopHandler},
		{Name: "list", Handler: noopHandler},
	})

	entries := reg.Entries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"exit", "help", "list", "stop"}, names)
}

func TestExitHandlerRequestsShutdown(t *testing.T) {
	reg := NewRegistry(nil)
	entry, ok := reg.Entry("exit")
	require.True(t, ok)

	var out bytes.Buffer
	code := -1
	env := &Env{Commands: reg, Out: &out, Exit: func(c int) { code = c }}

	require.NoError(t, entry.Handler(context.Background(), env, nil))
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "shutting down")
}
