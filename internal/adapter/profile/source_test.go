package profile

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetd/internal/domain"
)

func newTestSource(t *testing.T) *Source {
	t.Helper()
	src, err := NewSource(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return src
}

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullProfile(t *testing.T) {
	src := newTestSource(t)
	path := writeProfile(t, `
name: alpha
load_memory: true
initial_message: "hello fleet"
task:
  path: tasks.yaml
  id: t1
`)

	p, err := src.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "alpha", p.Name)
	assert.True(t, p.LoadMemory)
	assert.Equal(t, "hello fleet", p.InitialMessage)
	assert.Equal(t, "tasks.yaml", p.Task.Path)
	assert.Equal(t, "t1", p.Task.ID)
}

func TestLoadMinimalProfile(t *testing.T) {
	src := newTestSource(t)
	path := writeProfile(t, "name: bravo\n")

	p, err := src.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bravo", p.Name)
	assert.False(t, p.LoadMemory)
	assert.Empty(t, p.InitialMessage)
}

func TestLoadMissingName(t *testing.T) {
	src := newTestSource(t)
	path := writeProfile(t, "load_memory: true\n")

	_, err := src.Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestLoadUnknownField(t *testing.T) {
	src := newTestSource(t)
	path := writeProfile(t, "name: alpha\nshoe_size: 42\n")

	_, err := src.Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestLoadMalformedYAML(t *testing.T) {
	src := newTestSource(t)
	path := writeProfile(t, "name: [unterminated\n")

	_, err := src.Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	src := newTestSource(t)
	_, err := src.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
