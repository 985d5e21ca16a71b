package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"smartfarm/internal/models"
	"smartfarm/internal/repository"

	"github.com/google/uuid"
)

// SubmitParams carries one control-command submission.
type SubmitParams struct {
	Sector    string
	Device    string
	Status    bool
	Mode      models.ControlMode
	Schedule  *models.SchedulePayload
	Threshold *models.ThresholdPayload
}

type deviceKey struct {
	Sector string
	Device string
}

func (k deviceKey) String() string { return k.Sector + "\x00" + k.Device }

// deviceState is the materialized per-device fold over the log: command
// history (ascending seq), the pending command if any, and the device view.
type deviceState struct {
	info    models.Device
	lastSeq int64 // last assigned command sequence number
	pending *models.Command
	history []*models.Command
}

// DispatcherService validates and sequences control commands per device and
// tracks their outcome. The check-pending-then-append section runs under a
// per-device key lock so unrelated devices never serialize each other.
type DispatcherService struct {
	events repository.EventLog
	feed   *NotificationFeed
	locks  *keyLocks

	mu      sync.RWMutex
	devices map[deviceKey]*deviceState
	byID    map[string]*models.Command
}

func NewDispatcherService(events repository.EventLog, feed *NotificationFeed) *DispatcherService {
	return &DispatcherService{
		events:  events,
		feed:    feed,
		locks:   newKeyLocks(),
		devices: make(map[deviceKey]*deviceState),
		byID:    make(map[string]*models.Command),
	}
}

const scheduleLayout = "15:04"

// validate checks mode and payload shape. Schedule windows must satisfy
// start <= end; windows crossing midnight are rejected.
func validateSubmit(p SubmitParams) error {
	if strings.TrimSpace(p.Sector) == "" || strings.TrimSpace(p.Device) == "" {
		return fmt.Errorf("%w: sector and device are required", models.ErrInvalidPayload)
	}
	if !models.ValidMode(p.Mode) {
		return fmt.Errorf("%w: mode %q", models.ErrInvalidPayload, p.Mode)
	}

	switch p.Mode {
	case models.ModeManual:
		if p.Schedule != nil || p.Threshold != nil {
			return fmt.Errorf("%w: MANUAL takes no payload", models.ErrInvalidPayload)
		}
	case models.ModeSchedule:
		if p.Schedule == nil || p.Threshold != nil {
			return fmt.Errorf("%w: SCHEDULE requires a schedule payload", models.ErrInvalidPayload)
		}
		start, err := time.Parse(scheduleLayout, p.Schedule.Start)
		if err != nil {
			return fmt.Errorf("%w: bad start time %q, want HH:MM", models.ErrInvalidPayload, p.Schedule.Start)
		}
		end, err := time.Parse(scheduleLayout, p.Schedule.End)
		if err != nil {
			return fmt.Errorf("%w: bad end time %q, want HH:MM", models.ErrInvalidPayload, p.Schedule.End)
		}
		if start.After(end) {
			return fmt.Errorf("%w: schedule start must be <= end", models.ErrInvalidPayload)
		}
	case models.ModeThreshold:
		if p.Threshold == nil || p.Schedule != nil {
			return fmt.Errorf("%w: THRESHOLD requires a threshold payload", models.ErrInvalidPayload)
		}
		if strings.TrimSpace(p.Threshold.Attribute) == "" {
			return fmt.Errorf("%w: threshold attribute is required", models.ErrInvalidPayload)
		}
		if p.Threshold.TolerancePercent <= 0 || p.Threshold.TolerancePercent > 100 {
			return fmt.Errorf("%w: %v", models.ErrInvalidPayload, models.ErrInvalidTolerance)
		}
		if p.Threshold.Center <= 0 {
			return fmt.Errorf("%w: threshold center must be positive", models.ErrInvalidPayload)
		}
	}
	return nil
}

// Submit validates, sequences and logs a new command. At most one command per
// device may be Pending; a conflicting submission is rejected, not queued —
// retry/backoff is the caller's policy.
func (s *DispatcherService) Submit(ctx context.Context, p SubmitParams) (models.Command, error) {
	if err := validateSubmit(p); err != nil {
		return models.Command{}, err
	}

	key := deviceKey{Sector: p.Sector, Device: p.Device}
	unlock := s.locks.lock(key.String())
	defer unlock()

	s.mu.RLock()
	st := s.devices[key]
	if st != nil && st.pending != nil {
		s.mu.RUnlock()
		return models.Command{}, fmt.Errorf("%w: %s/%s command #%d still pending",
			models.ErrCommandConflict, p.Sector, p.Device, st.pending.Seq)
	}
	var nextSeq int64 = 1
	if st != nil {
		nextSeq = st.lastSeq + 1
	}
	s.mu.RUnlock()

	cmd := models.Command{
		ID:          uuid.NewString(),
		Seq:         nextSeq,
		Sector:      p.Sector,
		Device:      p.Device,
		Status:      p.Status,
		Mode:        p.Mode,
		Schedule:    p.Schedule,
		Threshold:   p.Threshold,
		SubmittedAt: time.Now().UTC(),
		Outcome:     models.OutcomePending,
	}

	e, err := models.NewEvent(models.EventCommandSubmitted, cmd.SubmittedAt, cmd)
	if err != nil {
		return models.Command{}, err
	}
	if _, err := s.events.Append(ctx, e); err != nil {
		return models.Command{}, err
	}

	s.applySubmitted(cmd)

	if err := s.feed.commandSubmitted(ctx, cmd); err != nil {
		return models.Command{}, err
	}
	return cmd, nil
}

// Resolve records the command outcome. Repeat delivery of an acknowledgment
// is a no-op success; only an unknown id is an error.
func (s *DispatcherService) Resolve(ctx context.Context, commandID string, outcome models.CommandOutcome) (models.Command, error) {
	if outcome != models.OutcomeApplied && outcome != models.OutcomeFailed {
		return models.Command{}, fmt.Errorf("%w: outcome must be APPLIED or FAILED", models.ErrInvalidPayload)
	}

	s.mu.RLock()
	cmd := s.byID[commandID]
	s.mu.RUnlock()
	if cmd == nil {
		return models.Command{}, fmt.Errorf("%w: %s", models.ErrUnknownCommand, commandID)
	}

	key := deviceKey{Sector: cmd.Sector, Device: cmd.Device}
	unlock := s.locks.lock(key.String())
	defer unlock()

	s.mu.RLock()
	already := cmd.Outcome != models.OutcomePending
	snapshot := *cmd
	s.mu.RUnlock()
	if already {
		// Idempotent: the device transport is at-least-once.
		return snapshot, nil
	}

	now := time.Now().UTC()
	payload := models.CommandResolvedPayload{
		CommandID:  commandID,
		Sector:     cmd.Sector,
		Device:     cmd.Device,
		Outcome:    outcome,
		ResolvedAt: now,
	}
	e, err := models.NewEvent(models.EventCommandResolved, now, payload)
	if err != nil {
		return models.Command{}, err
	}
	if _, err := s.events.Append(ctx, e); err != nil {
		return models.Command{}, err
	}

	resolved := s.applyResolved(payload)

	if err := s.feed.commandResolved(ctx, resolved); err != nil {
		return models.Command{}, err
	}
	return resolved, nil
}

const defaultHistoryLimit = 50

// History returns the most recent limit commands for the device with sequence
// number strictly below before (before <= 0 means no upper bound), ordered
// newest-first. The page is copied under the read lock, so pagination stays
// stable while new commands are appended concurrently.
func (s *DispatcherService) History(ctx context.Context, sector, device string, limit int, before int64) ([]models.Command, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.devices[deviceKey{Sector: sector, Device: device}]
	if st == nil {
		return []models.Command{}, nil
	}

	out := make([]models.Command, 0, limit)
	for i := len(st.history) - 1; i >= 0 && len(out) < limit; i-- {
		c := st.history[i]
		if before > 0 && c.Seq >= before {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

// Devices returns the materialized device views, ordered by sector then name.
func (s *DispatcherService) Devices(ctx context.Context) ([]models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Device, 0, len(s.devices))
	for _, st := range s.devices {
		out = append(out, st.info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sector != out[j].Sector {
			return out[i].Sector < out[j].Sector
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// ---- fold (shared by the live path and replay) ----

func (s *DispatcherService) applySubmitted(cmd models.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := deviceKey{Sector: cmd.Sector, Device: cmd.Device}
	st := s.devices[key]
	if st == nil {
		// Devices are created implicitly on first command.
		st = &deviceState{info: models.Device{
			Sector: cmd.Sector,
			Name:   cmd.Device,
			Mode:   models.ModeManual,
			Active: true,
		}}
		s.devices[key] = st
	}

	c := cmd
	if c.Seq > st.lastSeq {
		st.lastSeq = c.Seq
	}
	st.history = append(st.history, &c)
	s.byID[c.ID] = &c
	if c.Outcome == models.OutcomePending {
		st.pending = &c
	}
	st.info.UpdatedAt = c.SubmittedAt
}

func (s *DispatcherService) applyResolved(p models.CommandResolvedPayload) models.Command {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd := s.byID[p.CommandID]
	if cmd == nil || cmd.Outcome != models.OutcomePending {
		if cmd != nil {
			return *cmd
		}
		return models.Command{}
	}

	resolvedAt := p.ResolvedAt
	cmd.Outcome = p.Outcome
	cmd.ResolvedAt = &resolvedAt

	st := s.devices[deviceKey{Sector: cmd.Sector, Device: cmd.Device}]
	if st != nil {
		if st.pending != nil && st.pending.ID == cmd.ID {
			st.pending = nil
		}
		// The device view only advances on a successful apply.
		if p.Outcome == models.OutcomeApplied {
			st.info.Status = cmd.Status
			st.info.Mode = cmd.Mode
			st.info.LastSeq = cmd.Seq
		}
		st.info.UpdatedAt = resolvedAt
	}
	return *cmd
}

// apply folds a replayed event into dispatcher state. Replay never re-emits
// events or notifications; those are already in the log.
func (s *DispatcherService) apply(e models.Event) error {
	switch e.Kind {
	case models.EventCommandSubmitted:
		var cmd models.Command
		if err := e.Decode(&cmd); err != nil {
			return fmt.Errorf("decode command event %d: %w", e.Seq, err)
		}
		s.applySubmitted(cmd)
	case models.EventCommandResolved:
		var p models.CommandResolvedPayload
		if err := e.Decode(&p); err != nil {
			return fmt.Errorf("decode resolve event %d: %w", e.Seq, err)
		}
		s.applyResolved(p)
	}
	return nil
}
