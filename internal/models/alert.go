package models

import "time"

type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "WARNING"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// Alert is raised when a reading breaches a threshold band and stays open
// until a reading returns inside the band or a user acknowledges it.
// ResolvedAt, once set, is never unset; a new breach opens a new Alert.
type Alert struct {
	ID         string        `json:"id"`
	Sector     string        `json:"sector"`
	Attribute  string        `json:"attribute"`
	Value      float64       `json:"value"`     // triggering reading
	Threshold  Threshold     `json:"threshold"` // snapshot at raise time
	Severity   AlertSeverity `json:"severity"`
	RaisedAt   time.Time     `json:"raised_at"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
}

// Resolved reports whether the alert has been closed.
func (a Alert) Resolved() bool { return a.ResolvedAt != nil }

// Notification statuses used by the feed.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "PENDING"
	NotificationCompleted NotificationStatus = "COMPLETED"
)

// Notification is a user-facing feed entry derived from command, threshold
// and authentication events. Append-only; never updated or deleted.
type Notification struct {
	Seq        int64              `json:"seq"`
	OccurredAt time.Time          `json:"occurred_at"`
	Content    string             `json:"content"`
	Status     NotificationStatus `json:"status"`
}
