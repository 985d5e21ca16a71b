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

	"github.com/google/uuid"
)

var errInvalidAlertFilter = errors.New("invalid alert filter: must be all, active or resolved")

type alertKey struct {
	Sector    string
	Attribute string
}

func (k alertKey) String() string { return k.Sector + "\x00" + k.Attribute }

// Per-key evaluation state machine. A breach is one alert until it clears:
// Normal -(out of band)-> Breached -(in band or ack)-> Normal.
type keyPhase int

const (
	phaseNormal keyPhase = iota
	phaseBreached
)

type alertState struct {
	phase  keyPhase
	active *models.Alert // unresolved alert while phase == phaseBreached
}

// AlertService evaluates telemetry readings against the current thresholds.
// Readings for one (sector, attribute) key are evaluated in arrival order
// under the key lock; different keys evaluate concurrently.
type AlertService struct {
	events     repository.EventLog
	thresholds *ThresholdService
	locks      *keyLocks

	mu     sync.RWMutex
	states map[alertKey]*alertState
	alerts []*models.Alert // ascending raise order
	byID   map[string]*models.Alert
}

func NewAlertService(events repository.EventLog, thresholds *ThresholdService) *AlertService {
	return &AlertService{
		events:     events,
		thresholds: thresholds,
		locks:      newKeyLocks(),
		states:     make(map[alertKey]*alertState),
		byID:       make(map[string]*models.Alert),
	}
}

// Ingest logs the reading and runs threshold evaluation for its key.
func (s *AlertService) Ingest(ctx context.Context, r models.TelemetryReading) error {
	if strings.TrimSpace(r.Sector) == "" || strings.TrimSpace(r.Attribute) == "" {
		return fmt.Errorf("%w: sector and attribute are required", models.ErrInvalidPayload)
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	} else {
		r.Timestamp = r.Timestamp.UTC()
	}

	key := alertKey{Sector: r.Sector, Attribute: r.Attribute}
	unlock := s.locks.lock(key.String())
	defer unlock()

	e, err := models.NewEvent(models.EventReadingIngested, r.Timestamp, r)
	if err != nil {
		return err
	}
	if _, err := s.events.Append(ctx, e); err != nil {
		return err
	}

	return s.evaluate(ctx, key, r)
}

// evaluate runs the per-key state machine. Caller holds the key lock.
func (s *AlertService) evaluate(ctx context.Context, key alertKey, r models.TelemetryReading) error {
	th, err := s.thresholds.Get(ctx, r.Sector, r.Attribute)
	if err != nil || !th.Enabled {
		// No configured band for this attribute; nothing to evaluate.
		return nil
	}

	breached := r.Value >= th.Max || r.Value <= th.Min

	s.mu.RLock()
	st := s.states[key]
	phase := phaseNormal
	var active *models.Alert
	if st != nil {
		phase = st.phase
		active = st.active
	}
	s.mu.RUnlock()

	switch {
	case breached && phase == phaseNormal:
		return s.raise(ctx, key, r, th)
	case !breached && phase == phaseBreached && active != nil:
		return s.resolve(ctx, key, active.ID)
	default:
		// Repeat breach while unresolved is suppressed; in-band readings in
		// Normal are no-ops.
		return nil
	}
}

// breachMagnitude is the distance from the crossed band edge.
func breachMagnitude(value float64, th models.Threshold) float64 {
	if value >= th.Max {
		return value - th.Max
	}
	return th.Min - value
}

func (s *AlertService) raise(ctx context.Context, key alertKey, r models.TelemetryReading, th models.Threshold) error {
	band := th.Max - th.Center
	severity := models.SeverityWarning
	if breachMagnitude(r.Value, th) > 2*band {
		severity = models.SeverityCritical
	}

	a := models.Alert{
		ID:        uuid.NewString(),
		Sector:    r.Sector,
		Attribute: r.Attribute,
		Value:     r.Value,
		Threshold: th,
		Severity:  severity,
		RaisedAt:  time.Now().UTC(),
	}

	e, err := models.NewEvent(models.EventAlertRaised, a.RaisedAt, a)
	if err != nil {
		return err
	}
	if _, err := s.events.Append(ctx, e); err != nil {
		return err
	}

	s.applyRaised(a)
	return nil
}

func (s *AlertService) resolve(ctx context.Context, key alertKey, alertID string) error {
	now := time.Now().UTC()
	p := models.AlertResolvedPayload{
		AlertID:    alertID,
		Sector:     key.Sector,
		Attribute:  key.Attribute,
		ResolvedAt: now,
	}
	e, err := models.NewEvent(models.EventAlertResolved, now, p)
	if err != nil {
		return err
	}
	if _, err := s.events.Append(ctx, e); err != nil {
		return err
	}

	s.applyResolved(p)
	return nil
}

// Acknowledge closes an open alert on behalf of a user. Acknowledging an
// already-resolved alert is a no-op success; a later breach opens a new
// alert, never reopens this one.
func (s *AlertService) Acknowledge(ctx context.Context, alertID string) (models.Alert, error) {
	s.mu.RLock()
	a := s.byID[alertID]
	s.mu.RUnlock()
	if a == nil {
		return models.Alert{}, fmt.Errorf("%w: %s", models.ErrAlertNotFound, alertID)
	}

	key := alertKey{Sector: a.Sector, Attribute: a.Attribute}
	unlock := s.locks.lock(key.String())
	defer unlock()

	s.mu.RLock()
	resolved := a.Resolved()
	snapshot := *a
	s.mu.RUnlock()
	if resolved {
		return snapshot, nil
	}

	if err := s.resolve(ctx, key, alertID); err != nil {
		return models.Alert{}, err
	}

	s.mu.RLock()
	snapshot = *a
	s.mu.RUnlock()
	return snapshot, nil
}

// Alert list filters.
const (
	FilterAll      = "all"
	FilterActive   = "active"
	FilterResolved = "resolved"
)

// List returns alerts newest-first, optionally filtered by state.
func (s *AlertService) List(ctx context.Context, filter string) ([]models.Alert, error) {
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "", FilterAll:
		filter = FilterAll
	case FilterActive:
		filter = FilterActive
	case FilterResolved:
		filter = FilterResolved
	default:
		return nil, errInvalidAlertFilter
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Alert, 0, len(s.alerts))
	for i := len(s.alerts) - 1; i >= 0; i-- {
		a := s.alerts[i]
		if filter == FilterActive && a.Resolved() {
			continue
		}
		if filter == FilterResolved && !a.Resolved() {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

// ---- fold (shared by the live path and replay) ----

func (s *AlertService) applyRaised(a models.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := a
	s.alerts = append(s.alerts, &c)
	s.byID[c.ID] = &c
	s.states[alertKey{Sector: c.Sector, Attribute: c.Attribute}] = &alertState{
		phase:  phaseBreached,
		active: &c,
	}
}

func (s *AlertService) applyResolved(p models.AlertResolvedPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a := s.byID[p.AlertID]; a != nil && !a.Resolved() {
		resolvedAt := p.ResolvedAt
		a.ResolvedAt = &resolvedAt
	}
	key := alertKey{Sector: p.Sector, Attribute: p.Attribute}
	if st := s.states[key]; st != nil && st.active != nil && st.active.ID == p.AlertID {
		st.phase = phaseNormal
		st.active = nil
	}
}

// apply folds a replayed event. ReadingIngested is a no-op here: the raise
// and resolve decisions it produced live are themselves in the log, so the
// fold stays deterministic and immune to threshold-version skew.
func (s *AlertService) apply(e models.Event) error {
	switch e.Kind {
	case models.EventAlertRaised:
		var a models.Alert
		if err := e.Decode(&a); err != nil {
			return fmt.Errorf("decode alert event %d: %w", e.Seq, err)
		}
		s.applyRaised(a)
	case models.EventAlertResolved:
		var p models.AlertResolvedPayload
		if err := e.Decode(&p); err != nil {
			return fmt.Errorf("decode alert resolve event %d: %w", e.Seq, err)
		}
		s.applyResolved(p)
	}
	return nil
}
