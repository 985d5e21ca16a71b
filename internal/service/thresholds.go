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
)

// SetThresholdParams carries one threshold configuration update.
type SetThresholdParams struct {
	Sector           string
	Attribute        string
	Center           float64
	TolerancePercent float64
	Unit             string
}

type thresholdKey struct {
	Sector    string
	Attribute string
}

// ThresholdService holds the current threshold per (sector, attribute).
// Updates are last-write-wins in memory; every superseded version stays
// recoverable from the event log, not from a live query.
type ThresholdService struct {
	events repository.EventLog
	feed   *NotificationFeed

	mu    sync.RWMutex
	byKey map[thresholdKey]models.Threshold
}

func NewThresholdService(events repository.EventLog, feed *NotificationFeed) *ThresholdService {
	return &ThresholdService{
		events: events,
		feed:   feed,
		byKey:  make(map[thresholdKey]models.Threshold),
	}
}

// Set validates the tolerance, derives the min/max band and logs the update.
func (s *ThresholdService) Set(ctx context.Context, p SetThresholdParams) (models.Threshold, error) {
	if strings.TrimSpace(p.Sector) == "" || strings.TrimSpace(p.Attribute) == "" {
		return models.Threshold{}, fmt.Errorf("%w: sector and attribute are required", models.ErrInvalidPayload)
	}
	if p.TolerancePercent <= 0 || p.TolerancePercent > 100 {
		return models.Threshold{}, models.ErrInvalidTolerance
	}
	// The percentage formula inverts the band for center <= 0 (min >= max),
	// which would turn every reading into a breach.
	if p.Center <= 0 {
		return models.Threshold{}, fmt.Errorf("%w: center must be positive", models.ErrInvalidPayload)
	}

	t := models.Threshold{
		Sector:           p.Sector,
		Attribute:        p.Attribute,
		Center:           p.Center,
		TolerancePercent: p.TolerancePercent,
		Min:              p.Center * (1 - p.TolerancePercent/100),
		Max:              p.Center * (1 + p.TolerancePercent/100),
		Unit:             p.Unit,
		Enabled:          true,
		UpdatedAt:        time.Now().UTC(),
	}

	e, err := models.NewEvent(models.EventThresholdUpdated, t.UpdatedAt, t)
	if err != nil {
		return models.Threshold{}, err
	}
	if _, err := s.events.Append(ctx, e); err != nil {
		return models.Threshold{}, err
	}

	s.applyUpdated(t)

	if err := s.feed.thresholdUpdated(ctx, t); err != nil {
		return models.Threshold{}, err
	}
	return t, nil
}

// Get returns the current threshold for the key.
func (s *ThresholdService) Get(ctx context.Context, sector, attribute string) (models.Threshold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.byKey[thresholdKey{Sector: sector, Attribute: attribute}]
	if !ok {
		return models.Threshold{}, fmt.Errorf("%w: %s/%s", models.ErrThresholdNotFound, sector, attribute)
	}
	return t, nil
}

// List returns the sector's thresholds ordered by attribute name for
// deterministic output.
func (s *ThresholdService) List(ctx context.Context, sector string) ([]models.Threshold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Threshold, 0, len(s.byKey))
	for k, t := range s.byKey {
		if sector == "" || k.Sector == sector {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sector != out[j].Sector {
			return out[i].Sector < out[j].Sector
		}
		return out[i].Attribute < out[j].Attribute
	})
	return out, nil
}

func (s *ThresholdService) applyUpdated(t models.Threshold) {
	s.mu.Lock()
	s.byKey[thresholdKey{Sector: t.Sector, Attribute: t.Attribute}] = t
	s.mu.Unlock()
}

// apply folds a replayed ThresholdUpdated event.
func (s *ThresholdService) apply(e models.Event) error {
	var t models.Threshold
	if err := e.Decode(&t); err != nil {
		return fmt.Errorf("decode threshold event %d: %w", e.Seq, err)
	}
	s.applyUpdated(t)
	return nil
}
