package domain

import "time"

// JournalEntry is one recorded lifecycle event, as returned by the
// console's history command.
type JournalEntry struct {
	Time   time.Time
	Agent  string
	Type   EventType
	Detail string
}

// JournalReader exposes the read side of the lifecycle journal. The write
// side is fed from the event bus; nothing is ever restored from the journal
// at boot.
type JournalReader interface {
	// Recent returns up to n entries, newest first, optionally filtered by
	// agent name ("" means all agents).
	Recent(agent string, n int) ([]JournalEntry, error)
}
