package domain

import "time"

// AgentDescriptor holds the static launch parameters for one supervised
// agent. It is built once at startup from a profile file and never mutated;
// the Supervisor that owns it reuses the same descriptor for every restart.
type AgentDescriptor struct {
	Name           string // unique fleet key
	Profile        string // path of the profile file handed to the worker
	Ordinal        int    // deterministic index within the fleet
	LoadMemory     bool   // ask the worker to load its previous memory
	InitialMessage string // optional first message injected at launch
	TaskPath       string // optional task file reference
	TaskID         string // optional task id within TaskPath
}

// AgentState is the lifecycle state of a supervised agent. There are exactly
// two states; a stopped agent stays addressable and can be resumed.
type AgentState string

const (
	AgentIdle    AgentState = "idle"
	AgentRunning AgentState = "running"
)

// SpawnStatus is a point-in-time snapshot of one supervisor, consumed by
// the console's status command.
type SpawnStatus struct {
	Name        string
	State       AgentState
	SpawnID     string // ULID of the current or most recent spawn
	PID         int    // 0 when idle
	LastRestart time.Time
}
