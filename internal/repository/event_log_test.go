package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"smartfarm/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func TestEventLog_Append_ReturnsAssignedSeq(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewEventSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WithArgs(sqlmock.AnyArg(), models.EventThresholdUpdated, `{"sector":"A"}`).
		WillReturnResult(sqlmock.NewResult(7, 1))

	seq, err := repo.Append(ctx(t), models.Event{
		// OccurredAt zero -> repo sets UTC now
		Kind:    models.EventThresholdUpdated,
		Payload: []byte(`{"sector":"A"}`),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if seq != 7 {
		t.Fatalf("expected seq=7, got %d", seq)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestEventLog_Append_PropagatesStorageError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewEventSQLite(db)

	boom := errors.New("disk full")
	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WillReturnError(boom)

	if _, err := repo.Append(ctx(t), models.Event{Kind: models.EventReadingIngested, Payload: []byte(`{}`)}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
}

func TestEventLog_ReadFrom_IteratesInOrder(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewEventSQLite(db)

	ts1 := time.Date(2026, 8, 1, 10, 0, 0, 123456789, time.UTC)
	ts2 := ts1.Add(time.Minute)
	rows := sqlmock.NewRows([]string{"seq", "occurred_at", "kind", "payload"}).
		AddRow(int64(3), ts1.Format(time.RFC3339Nano), models.EventReadingIngested, `{"value":28}`).
		AddRow(int64(4), ts2.Format(time.RFC3339Nano), models.EventAlertRaised, `{"severity":"WARNING"}`)

	mock.ExpectQuery(regexp.QuoteMeta(selectEventsFromSQL)).
		WithArgs(int64(3)).
		WillReturnRows(rows)

	cursor, err := repo.ReadFrom(ctx(t), 3)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	defer func() { _ = cursor.Close() }()

	var got []models.Event
	for cursor.Next() {
		got = append(got, cursor.Event())
	}
	if err := cursor.Err(); err != nil {
		t.Fatalf("cursor err: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Seq != 3 || got[1].Seq != 4 {
		t.Fatalf("expected ascending seq 3,4, got %+v", got)
	}
	if !got[0].OccurredAt.Equal(ts1) {
		t.Fatalf("timestamp lost precision: want %v, got %v", ts1, got[0].OccurredAt)
	}
	if string(got[1].Payload) != `{"severity":"WARNING"}` {
		t.Fatalf("unexpected payload: %s", got[1].Payload)
	}
}

func TestEventLog_ReadFrom_EarlyClose(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewEventSQLite(db)

	rows := sqlmock.NewRows([]string{"seq", "occurred_at", "kind", "payload"}).
		AddRow(int64(1), time.Now().UTC().Format(time.RFC3339Nano), models.EventReadingIngested, `{}`).
		AddRow(int64(2), time.Now().UTC().Format(time.RFC3339Nano), models.EventReadingIngested, `{}`)

	mock.ExpectQuery(regexp.QuoteMeta(selectEventsFromSQL)).
		WithArgs(int64(0)).
		WillReturnRows(rows).
		RowsWillBeClosed()

	cursor, err := repo.ReadFrom(ctx(t), 0)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if !cursor.Next() {
		t.Fatalf("expected at least one event")
	}
	// Abandon consumption; Close is the only cleanup required.
	if err := cursor.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
