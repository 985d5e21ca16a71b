package models

import "time"

// Control modes a device can be driven in.
type ControlMode string

const (
	ModeManual    ControlMode = "MANUAL"
	ModeSchedule  ControlMode = "SCHEDULE"
	ModeThreshold ControlMode = "THRESHOLD"
)

// ValidMode reports whether m is one of the supported control modes.
func ValidMode(m ControlMode) bool {
	switch m {
	case ModeManual, ModeSchedule, ModeThreshold:
		return true
	}
	return false
}

// Command outcomes. A command is Pending from submission until the device
// acknowledges it (Applied) or the transport times out (Failed).
type CommandOutcome string

const (
	OutcomePending CommandOutcome = "PENDING"
	OutcomeApplied CommandOutcome = "APPLIED"
	OutcomeFailed  CommandOutcome = "FAILED"
)

// SchedulePayload is the mode-specific payload for SCHEDULE commands.
// Start and End are times of day in "HH:MM"; Start must not be after End.
type SchedulePayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ThresholdPayload is the mode-specific payload for THRESHOLD commands.
type ThresholdPayload struct {
	Attribute        string  `json:"attribute"`
	Center           float64 `json:"center"`
	TolerancePercent float64 `json:"tolerance_percent"`
	Unit             string  `json:"unit,omitempty"`
}

// Command is an immutable control-command record. Outcome is mutated exactly
// once (Pending -> Applied|Failed); commands are never deleted.
type Command struct {
	ID          string            `json:"id"`
	Seq         int64             `json:"seq"` // monotonic per (sector, device)
	Sector      string            `json:"sector"`
	Device      string            `json:"device"`
	Status      bool              `json:"status"` // requested on/off
	Mode        ControlMode       `json:"mode"`
	Schedule    *SchedulePayload  `json:"schedule,omitempty"`
	Threshold   *ThresholdPayload `json:"threshold,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
	Outcome     CommandOutcome    `json:"outcome"`
	ResolvedAt  *time.Time        `json:"resolved_at,omitempty"`
}

// Device is the materialized per-device view: created implicitly on first
// command, deactivated but never deleted.
type Device struct {
	Sector    string      `json:"sector"`
	Name      string      `json:"name"`
	Status    bool        `json:"status"` // current on/off
	Mode      ControlMode `json:"mode"`
	LastSeq   int64       `json:"last_seq"` // last applied command sequence
	Active    bool        `json:"active"`
	UpdatedAt time.Time   `json:"updated_at"`
}
