package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"smartfarm/internal/models"
	"smartfarm/internal/repository"
)

var errInvalidStatusFilter = errors.New("invalid status filter: must be pending, completed or all")

// NotificationFeed is the append-only projection of user-facing events:
// command submissions and outcomes, threshold changes and auth events.
// Historical entries are never updated or deleted.
type NotificationFeed struct {
	events repository.EventLog

	mu    sync.RWMutex
	items []models.Notification // ascending seq
}

func NewNotificationFeed(events repository.EventLog) *NotificationFeed {
	return &NotificationFeed{events: events}
}

const defaultFeedLimit = 50

// List returns the newest entries first, optionally filtered by status.
// statusFilter is "", "all", "pending" or "completed" (case-insensitive).
func (f *NotificationFeed) List(ctx context.Context, statusFilter string, limit int) ([]models.Notification, error) {
	status, err := parseStatusFilter(statusFilter)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]models.Notification, 0, limit)
	for i := len(f.items) - 1; i >= 0 && len(out) < limit; i-- {
		if status == "" || f.items[i].Status == status {
			out = append(out, f.items[i])
		}
	}
	return out, nil
}

func parseStatusFilter(s string) (models.NotificationStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return "", nil
	case "pending":
		return models.NotificationPending, nil
	case "completed":
		return models.NotificationCompleted, nil
	default:
		return "", errInvalidStatusFilter
	}
}

// record appends a NotificationCreated event and folds it into the feed.
// The log-assigned sequence id doubles as the notification id.
func (f *NotificationFeed) record(ctx context.Context, status models.NotificationStatus, content string) error {
	now := time.Now().UTC()
	n := models.Notification{OccurredAt: now, Content: content, Status: status}

	e, err := models.NewEvent(models.EventNotificationCreated, now, n)
	if err != nil {
		return err
	}
	seq, err := f.events.Append(ctx, e)
	if err != nil {
		return err
	}
	n.Seq = seq

	f.mu.Lock()
	f.items = append(f.items, n)
	f.mu.Unlock()
	return nil
}

// apply folds a replayed NotificationCreated event into the feed.
func (f *NotificationFeed) apply(e models.Event) error {
	var n models.Notification
	if err := e.Decode(&n); err != nil {
		return fmt.Errorf("decode notification event %d: %w", e.Seq, err)
	}
	if n.Seq == 0 {
		n.Seq = e.Seq
	}
	f.mu.Lock()
	f.items = append(f.items, n)
	f.mu.Unlock()
	return nil
}

// ---- producers called by the other services ----

func onOff(status bool) string {
	if status {
		return "ON"
	}
	return "OFF"
}

func (f *NotificationFeed) commandSubmitted(ctx context.Context, c models.Command) error {
	content := fmt.Sprintf("Command #%d for %s/%s: turn %s (%s)",
		c.Seq, c.Sector, c.Device, onOff(c.Status), c.Mode)
	return f.record(ctx, models.NotificationPending, content)
}

func (f *NotificationFeed) commandResolved(ctx context.Context, c models.Command) error {
	content := fmt.Sprintf("Command #%d for %s/%s %s", c.Seq, c.Sector, c.Device, c.Outcome)
	return f.record(ctx, models.NotificationCompleted, content)
}

func (f *NotificationFeed) thresholdUpdated(ctx context.Context, t models.Threshold) error {
	content := fmt.Sprintf("Threshold for %s/%s set to %.2f ±%.1f%% [%.2f, %.2f]",
		t.Sector, t.Attribute, t.Center, t.TolerancePercent, t.Min, t.Max)
	return f.record(ctx, models.NotificationCompleted, content)
}

func (f *NotificationFeed) userSignedUp(ctx context.Context, username string) error {
	return f.record(ctx, models.NotificationCompleted, fmt.Sprintf("New user %q signed up", username))
}

func (f *NotificationFeed) userSignedIn(ctx context.Context, username string) error {
	return f.record(ctx, models.NotificationCompleted, fmt.Sprintf("User %q signed in", username))
}
