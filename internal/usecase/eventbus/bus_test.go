package eventbus

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"fleetd/internal/domain"
)

func newTestBus() *Bus {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func waitEvent(t *testing.T, ch <-chan domain.Event) domain.Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return domain.Event{}
	}
}

func TestPublishReachesTypedSubscriber(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	got := make(chan domain.Event, 1)
	bus.Subscribe(domain.EventAgentStarted, func(_ context.Context, evt domain.Event) {
		got <- evt
	})

	bus.Publish(context.Background(), domain.Event{Type: domain.EventAgentStarted, Agent: "alpha"})

	evt := waitEvent(t, got)
	if evt.Agent != "alpha" {
		t.Errorf("agent = %q, want alpha", evt.Agent)
	}
}

func TestPublishSkipsOtherTypes(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	var calls atomic.Int32
	bus.Subscribe(domain.EventAgentStopped, func(context.Context, domain.Event) {
		calls.Add(1)
	})

	bus.Publish(context.Background(), domain.Event{Type: domain.EventAgentStarted, Agent: "alpha"})
	bus.Close()

	if n := calls.Load(); n != 0 {
		t.Errorf("handler calls = %d, want 0", n)
	}
}

func TestSubscribeAllSeesEverything(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	got := make(chan domain.Event, 2)
	bus.SubscribeAll(func(_ context.Context, evt domain.Event) {
		got <- evt
	})

	bus.Publish(context.Background(), domain.Event{Type: domain.EventAgentStarted, Agent: "alpha"})
	bus.Publish(context.Background(), domain.Event{Type: domain.EventAgentExited, Agent: "alpha"})

	seen := map[domain.EventType]bool{}
	seen[waitEvent(t, got).Type] = true
	seen[waitEvent(t, got).Type] = true
	if !seen[domain.EventAgentStarted] || !seen[domain.EventAgentExited] {
		t.Errorf("all-subscriber saw %v, want both started and exited", seen)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	var calls atomic.Int32
	unsub := bus.Subscribe(domain.EventAgentStarted, func(context.Context, domain.Event) {
		calls.Add(1)
	})
	unsub()

	bus.Publish(context.Background(), domain.Event{Type: domain.EventAgentStarted})
	bus.Close()

	if n := calls.Load(); n != 0 {
		t.Errorf("handler calls after unsubscribe = %d, want 0", n)
	}
}

func TestPanickingHandlerIsContained(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()

	got := make(chan domain.Event, 1)
	bus.Subscribe(domain.EventAgentStarted, func(context.Context, domain.Event) {
		panic("handler bug")
	})
	bus.Subscribe(domain.EventAgentStarted, func(_ context.Context, evt domain.Event) {
		got <- evt
	})

	bus.Publish(context.Background(), domain.Event{Type: domain.EventAgentStarted, Agent: "alpha"})

	if evt := waitEvent(t, got); evt.Agent != "alpha" {
		t.Errorf("agent = %q, want alpha", evt.Agent)
	}
}

func TestPublishAfterCloseIsNoop(t *testing.T) {
	bus := newTestBus()

	var calls atomic.Int32
	bus.Subscribe(domain.EventAgentStarted, func(context.Context, domain.Event) {
		calls.Add(1)
	})
	bus.Close()

	bus.Publish(context.Background(), domain.Event{Type: domain.EventAgentStarted})

	if n := calls.Load(); n != 0 {
		t.Errorf("handler calls after Close = %d, want 0", n)
	}
}
