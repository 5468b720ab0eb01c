// Package journal persists lifecycle events to SQLite so operators can ask
// "what happened to this agent" after the fact. It is append-only: nothing
// is ever restored from it at boot.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"fleetd/internal/domain"
)

// Journal is the SQLite-backed lifecycle event log.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ domain.JournalReader = (*Journal)(nil)

// Open opens (or creates) the journal database at path.
func Open(path string, logger *slog.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal db: %w", err)
	}
	return &Journal{db: db, logger: logger}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			ts     TEXT NOT NULL,
			agent  TEXT NOT NULL,
			type   TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT ''
		)
	`)
	return err
}

// Attach subscribes the journal to every event on the bus and returns the
// unsubscribe function.
func (j *Journal) Attach(bus domain.EventBus) func() {
	return bus.SubscribeAll(func(_ context.Context, evt domain.Event) {
		if err := j.Record(evt); err != nil {
			j.logger.Warn("journal write failed", "event", string(evt.Type), "error", err)
		}
	})
}

// Record appends one event.
func (j *Journal) Record(evt domain.Event) error {
	_, err := j.db.Exec(
		"INSERT INTO events (ts, agent, type, detail) VALUES (?, ?, ?, ?)",
		evt.Timestamp.UTC().Format(time.RFC3339Nano),
		evt.Agent,
		string(evt.Type),
		string(evt.Payload),
	)
	return err
}

// Recent returns up to n entries, newest first, optionally filtered by
// agent name.
func (j *Journal) Recent(agent string, n int) ([]domain.JournalEntry, error) {
	if n <= 0 {
		n = 20
	}

	query := "SELECT ts, agent, type, detail FROM events"
	args := []any{}
	if agent != "" {
		query += " WHERE agent = ?"
		args = append(args, agent)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, n)

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var ts, agentName, typ, detail string
		if err := rows.Scan(&ts, &agentName, &typ, &detail); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		t, _ := time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, domain.JournalEntry{
			Time:   t,
			Agent:  agentName,
			Type:   domain.EventType(typ),
			Detail: detail,
		})
	}
	return entries, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
