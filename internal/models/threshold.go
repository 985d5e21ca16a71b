package models

import "time"

// Threshold is the configured acceptable band for a sensor attribute within a
// sector. Min/Max are derived from Center and TolerancePercent; for a positive
// tolerance the invariant min < center < max always holds.
type Threshold struct {
	Sector           string    `json:"sector"`
	Attribute        string    `json:"attribute"`
	Center           float64   `json:"center"`
	TolerancePercent float64   `json:"tolerance_percent"` // in (0, 100]
	Min              float64   `json:"min"`
	Max              float64   `json:"max"`
	Unit             string    `json:"unit,omitempty"`
	Enabled          bool      `json:"enabled"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TelemetryReading is a single immutable sensor sample.
type TelemetryReading struct {
	Sector    string    `json:"sector"`
	Device    string    `json:"device,omitempty"`
	Attribute string    `json:"attribute"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
