package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"smartfarm/internal/models"
)

// Timestamps are stored as RFC3339Nano text so replayed events round-trip
// with full precision regardless of driver scanning behavior.
const timeLayout = time.RFC3339Nano

const (
	insertEventSQL = `INSERT INTO events (occurred_at, kind, payload) VALUES (?, ?, ?)`

	// Bounded by MAX(seq) at call time so a replay sees a finite snapshot
	// even while writers keep appending.
	selectEventsFromSQL = `
		SELECT seq, occurred_at, kind, payload FROM events
		WHERE seq >= ? AND seq <= (SELECT COALESCE(MAX(seq), 0) FROM events)
		ORDER BY seq ASC
	`
)

// EventSQLite persists the log in a single SQLite table. AUTOINCREMENT makes
// sequence ids strictly increasing and never reused; the mutex plus the
// single-connection pool linearizes appends so concurrent callers cannot
// interleave partial writes.
type EventSQLite struct {
	db *sql.DB
	mu sync.Mutex
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

var _ EventLog = (*EventSQLite)(nil)

// Append inserts the event and returns its assigned sequence id.
// Storage errors are surfaced to the caller; nothing is written partially.
func (r *EventSQLite) Append(ctx context.Context, e models.Event) (int64, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, insertEventSQL,
		e.OccurredAt.UTC().Format(timeLayout),
		e.Kind,
		string(e.Payload),
	)
	if err != nil {
		return 0, fmt.Errorf("append event %s: %w", e.Kind, err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("event sequence id: %w", err)
	}
	return seq, nil
}

// ReadFrom opens a lazy cursor over events with seq >= from in ascending
// order. The WAL journal lets readers proceed without blocking the writer.
func (r *EventSQLite) ReadFrom(ctx context.Context, from int64) (EventCursor, error) {
	rows, err := r.db.QueryContext(ctx, selectEventsFromSQL, from)
	if err != nil {
		return nil, fmt.Errorf("read events from seq %d: %w", from, err)
	}
	return &sqliteCursor{rows: rows}, nil
}

type sqliteCursor struct {
	rows *sql.Rows
	cur  models.Event
	err  error
}

func (c *sqliteCursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}
	var (
		e       models.Event
		ts      string
		payload string
	)
	if err := c.rows.Scan(&e.Seq, &ts, &e.Kind, &payload); err != nil {
		c.err = err
		return false
	}
	t, err := time.Parse(timeLayout, ts)
	if err != nil {
		c.err = fmt.Errorf("parse event %d timestamp %q: %w", e.Seq, ts, err)
		return false
	}
	e.OccurredAt = t.UTC()
	e.Payload = []byte(payload)
	c.cur = e
	return true
}

func (c *sqliteCursor) Event() models.Event { return c.cur }

func (c *sqliteCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

func (c *sqliteCursor) Close() error { return c.rows.Close() }
