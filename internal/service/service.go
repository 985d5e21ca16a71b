package service

import (
	"context"
	"fmt"

	"smartfarm/internal/models"
	"smartfarm/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Dispatcher validates, sequences and tracks device control commands.
type Dispatcher interface {
	Submit(ctx context.Context, p SubmitParams) (models.Command, error)
	Resolve(ctx context.Context, commandID string, outcome models.CommandOutcome) (models.Command, error)
	History(ctx context.Context, sector, device string, limit int, before int64) ([]models.Command, error)
	Devices(ctx context.Context) ([]models.Device, error)
}

// Thresholds holds the current acceptable band per (sector, attribute).
type Thresholds interface {
	Set(ctx context.Context, p SetThresholdParams) (models.Threshold, error)
	Get(ctx context.Context, sector, attribute string) (models.Threshold, error)
	List(ctx context.Context, sector string) ([]models.Threshold, error)
}

// Alerts ingests telemetry and exposes the alerts it derives.
type Alerts interface {
	Ingest(ctx context.Context, r models.TelemetryReading) error
	Acknowledge(ctx context.Context, alertID string) (models.Alert, error)
	List(ctx context.Context, filter string) ([]models.Alert, error)
}

// Notifications is the user-facing derived feed.
type Notifications interface {
	List(ctx context.Context, statusFilter string, limit int) ([]models.Notification, error)
}

// Config carries service-level settings read from the config file in main.
type Config struct {
	Auth AuthConfig
}

// applier folds one replayed log record into in-memory state.
type applier interface {
	apply(e models.Event) error
}

// Service aggregates all sub-services behind their interfaces.
type Service struct {
	Dispatcher
	Thresholds
	Alerts
	Notifications
	Authorization

	repos    *repository.Repository
	appliers []applier
}

// NewService wires the repository layer into concrete services. All derived
// state starts empty; call Replay before serving requests.
func NewService(repos *repository.Repository, cfg Config) *Service {
	feed := NewNotificationFeed(repos.Events)
	thresholds := NewThresholdService(repos.Events, feed)
	dispatcher := NewDispatcherService(repos.Events, feed)
	alerts := NewAlertService(repos.Events, thresholds)

	return &Service{
		Dispatcher:    dispatcher,
		Thresholds:    thresholds,
		Alerts:        alerts,
		Notifications: feed,
		Authorization: NewAuthService(repos.Auth, repos.Events, feed, cfg.Auth),
		repos:         repos,
		appliers:      []applier{dispatcher, thresholds, alerts, feed},
	}
}

// replayRoutes maps event kinds to the applier index in Service.appliers.
var replayRoutes = map[string]int{
	models.EventCommandSubmitted:    0,
	models.EventCommandResolved:     0,
	models.EventThresholdUpdated:    1,
	models.EventAlertRaised:         2,
	models.EventAlertResolved:       2,
	models.EventNotificationCreated: 3,
}

// Replay rebuilds all in-memory state by folding the event log from the
// beginning. In-memory state is never trusted across a restart; this fold is
// the recovery mechanism.
func (s *Service) Replay(ctx context.Context) error {
	cursor, err := s.repos.Events.ReadFrom(ctx, 0)
	if err != nil {
		return fmt.Errorf("open replay cursor: %w", err)
	}
	defer func() { _ = cursor.Close() }()

	for cursor.Next() {
		e := cursor.Event()
		idx, ok := replayRoutes[e.Kind]
		if !ok {
			// Reading and auth audit records carry no in-memory fold.
			continue
		}
		if err := s.appliers[idx].apply(e); err != nil {
			return fmt.Errorf("replay event %d: %w", e.Seq, err)
		}
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("replay scan: %w", err)
	}
	return nil
}
