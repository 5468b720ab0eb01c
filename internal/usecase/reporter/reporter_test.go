package reporter

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"fleetd/internal/usecase/fleet"
)

// syncBuffer guards concurrent writes from the cron goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStartRejectsBadSchedule(t *testing.T) {
	out := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(out, nil))
	r := New(fleet.NewRegistry(logger), logger)

	if err := r.Start("not a cron expression"); err == nil {
		t.Fatal("expected schedule parse error")
	}
}

func TestReportSummarizesFleet(t *testing.T) {
	out := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(out, nil))
	r := New(fleet.NewRegistry(logger), logger)

	r.report()

	got := out.String()
	if !strings.Contains(got, "fleet status") {
		t.Errorf("report output missing summary line:\n%s", got)
	}
	if !strings.Contains(got, "agents=0") {
		t.Errorf("report output missing agent count:\n%s", got)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	out := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(out, nil))
	r := New(fleet.NewRegistry(logger), logger)

	if err := r.Start("* * * * *"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	r.Stop()
}
