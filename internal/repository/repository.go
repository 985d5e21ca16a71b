package repository

import (
	"context"
	"database/sql"

	"smartfarm/internal/models"
	"smartfarm/internal/repository/db"
)

// InitDB opens/creates the backing SQLite store and ensures the schema.
func InitDB(path string) (*sql.DB, error) { return db.InitDB(path) }

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// EventCursor is a lazy forward iterator over log records in ascending
// sequence order. Callers may stop early by calling Close without draining.
type EventCursor interface {
	Next() bool
	Event() models.Event
	Err() error
	Close() error
}

// EventLog is the durable append-only record of every state-changing fact.
// Append assigns a globally monotonic sequence id; ReadFrom replays records
// with seq >= from, bounded by log length at call time.
type EventLog interface {
	Append(ctx context.Context, e models.Event) (int64, error)
	ReadFrom(ctx context.Context, from int64) (EventCursor, error)
}

type Repository struct {
	Events EventLog
	Auth   Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Events: NewEventSQLite(db),
		Auth:   NewUserRepository(db),
	}
}
