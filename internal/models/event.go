package models

import (
	"encoding/json"
	"time"
)

// Event kinds recorded in the log. Every state-changing fact lands here;
// in-memory views are a fold over the ordered sequence of these records.
const (
	EventReadingIngested     = "READING_INGESTED"
	EventCommandSubmitted    = "COMMAND_SUBMITTED"
	EventCommandResolved     = "COMMAND_RESOLVED"
	EventThresholdUpdated    = "THRESHOLD_UPDATED"
	EventAlertRaised         = "ALERT_RAISED"
	EventAlertResolved       = "ALERT_RESOLVED"
	EventNotificationCreated = "NOTIFICATION_CREATED"
	EventUserSignedUp        = "USER_SIGNED_UP"
	EventUserSignedIn        = "USER_SIGNED_IN"
)

// Event is one durable log record. Seq is assigned by the store on append and
// is globally monotonic. Payload holds the kind-specific JSON document.
type Event struct {
	Seq        int64           `json:"seq"`
	OccurredAt time.Time       `json:"occurred_at"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEvent marshals payload and wraps it into an Event ready for append.
func NewEvent(kind string, occurredAt time.Time, payload any) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		OccurredAt: occurredAt.UTC(),
		Kind:       kind,
		Payload:    b,
	}, nil
}

// Decode unmarshals the event payload into dst.
func (e Event) Decode(dst any) error {
	return json.Unmarshal(e.Payload, dst)
}

// CommandResolvedPayload records a command outcome transition.
type CommandResolvedPayload struct {
	CommandID  string         `json:"command_id"`
	Sector     string         `json:"sector"`
	Device     string         `json:"device"`
	Outcome    CommandOutcome `json:"outcome"`
	ResolvedAt time.Time      `json:"resolved_at"`
}

// AlertResolvedPayload records an alert being closed, by a reading returning
// inside the band or by user acknowledgment.
type AlertResolvedPayload struct {
	AlertID    string    `json:"alert_id"`
	Sector     string    `json:"sector"`
	Attribute  string    `json:"attribute"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// AuthEventPayload records a sign-up or sign-in.
type AuthEventPayload struct {
	Username string `json:"username"`
}
