// Package history keeps an audit trail of store mutations in SQLite.
//
// The trail is additive observability: the JSON transaction files remain
// the store's only system of record, and nothing here is read back on the
// request path.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one recorded store mutation. Detail carries the kind-specific
// payload as JSON text, exactly as it arrived on the wire.
type Event struct {
	EventID    string
	Kind       string
	AccountID  string
	Detail     string
	OccurredAt time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// RecordEvent stores an audit event. Redelivered events (the broker is
// at-least-once) are recognized by event id and ignored, so recording is
// idempotent.
func (r *Repository) RecordEvent(ctx context.Context, ev Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_events (event_id, kind, account_id, detail, occurred_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(event_id) DO NOTHING`,
		ev.EventID, ev.Kind, ev.AccountID, ev.Detail, ev.OccurredAt.UTC())
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}

	slog.InfoContext(ctx, "Audit event recorded",
		"event_id", ev.EventID,
		"kind", ev.Kind,
		"account_id", ev.AccountID)

	return nil
}

// EventsForAccount returns the most recent events for an account, newest
// first, up to limit.
func (r *Repository) EventsForAccount(ctx context.Context, accountID string, limit int) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id, kind, account_id, detail, occurred_at
		 FROM audit_events
		 WHERE account_id = ?
		 ORDER BY occurred_at DESC, event_id
		 LIMIT ?`,
		accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.EventID, &ev.Kind, &ev.AccountID, &ev.Detail, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// CountByKind aggregates recorded events per kind across all accounts.
func (r *Repository) CountByKind(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM audit_events GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}
