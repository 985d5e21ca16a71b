package service

import (
	"context"
	"testing"

	"smartfarm/internal/models"
)

func TestNotifications_FeedFromCommandsAndThresholds(t *testing.T) {
	log := &memEventLog{}
	feed := NewNotificationFeed(log)
	dispatcher := NewDispatcherService(log, feed)
	thresholds := NewThresholdService(log, feed)
	ctx := context.Background()

	cmd, err := dispatcher.Submit(ctx, manualSubmit("A", "Pump", true))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := dispatcher.Resolve(ctx, cmd.ID, models.OutcomeApplied); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := thresholds.Set(ctx, SetThresholdParams{
		Sector: "A", Attribute: "temperature", Center: 25, TolerancePercent: 10,
	}); err != nil {
		t.Fatalf("set threshold: %v", err)
	}

	all, err := feed.List(ctx, "all", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(all))
	}
	// Newest-first: threshold update, then resolution, then submission.
	if all[0].Status != models.NotificationCompleted || all[2].Status != models.NotificationPending {
		t.Fatalf("unexpected statuses: %+v", all)
	}
	for i := 0; i+1 < len(all); i++ {
		if all[i].Seq <= all[i+1].Seq {
			t.Fatalf("expected descending seq, got %+v", all)
		}
	}

	pending, err := feed.List(ctx, "pending", 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending notification, got %d", len(pending))
	}

	completed, err := feed.List(ctx, "COMPLETED", 0)
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(completed) != 2 {
		t.Fatalf("expected 2 completed notifications, got %d", len(completed))
	}
}

func TestNotifications_LimitAndFilterValidation(t *testing.T) {
	log := &memEventLog{}
	feed := NewNotificationFeed(log)
	dispatcher := NewDispatcherService(log, feed)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		cmd, err := dispatcher.Submit(ctx, manualSubmit("A", "Pump", true))
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if _, err := dispatcher.Resolve(ctx, cmd.ID, models.OutcomeApplied); err != nil {
			t.Fatalf("resolve: %v", err)
		}
	}

	limited, err := feed.List(ctx, "", 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(limited) != 3 {
		t.Fatalf("expected limit of 3, got %d", len(limited))
	}

	if _, err := feed.List(ctx, "loud", 0); err == nil {
		t.Fatalf("expected error for unknown status filter")
	}
}
