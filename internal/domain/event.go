package domain

import (
	"context"
	"encoding/json"
	"time"
)

// EventType identifies the kind of event being published.
type EventType string

const (
	EventAgentStarted     EventType = "agent.started"
	EventAgentExited      EventType = "agent.exited"
	EventAgentStopped     EventType = "agent.stopped"
	EventAgentRestarted   EventType = "agent.restarted"
	EventAgentRateLimited EventType = "agent.ratelimited"
	EventAgentFatal       EventType = "agent.fatal"
	EventMessageRelayed   EventType = "message.relayed"
)

// Event is the envelope published on the event bus.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Agent     string          `json:"agent,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// LifecyclePayload carries spawn details on agent.* events.
type LifecyclePayload struct {
	SpawnID  string `json:"spawn_id,omitempty"`
	PID      int    `json:"pid,omitempty"`
	ExitCode *int   `json:"exit_code,omitempty"`
	Signal   string `json:"signal,omitempty"`
	Resumed  bool   `json:"resumed,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// EventHandler processes a single published event.
type EventHandler func(ctx context.Context, event Event)

// EventBus is the in-process publish/subscribe contract.
type EventBus interface {
	Publish(ctx context.Context, event Event)
	Subscribe(eventType EventType, handler EventHandler) func()
	SubscribeAll(handler EventHandler) func()
	Close()
}
