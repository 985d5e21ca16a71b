package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartfarm/internal/models"
)

func newTestAuth() (*AuthService, *NotificationFeed, *fakeAuthRepo) {
	log := &memEventLog{}
	feed := NewNotificationFeed(log)
	repo := newFakeAuthRepo()
	return NewAuthService(repo, log, feed, AuthConfig{SigningKey: "test-key", TokenTTL: time.Minute}), feed, repo
}

func TestAuth_SignUpSignInRoundTrip(t *testing.T) {
	s, feed, _ := newTestAuth()
	ctx := context.Background()

	id, err := s.SignUp(ctx, "farmer", "s3cret")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected id=1, got %d", id)
	}

	token, err := s.GenerateToken(ctx, "farmer", "s3cret")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	userID, err := s.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if userID != id {
		t.Fatalf("expected user id %d, got %d", id, userID)
	}

	// Auth events surface in the notification feed.
	notifs, err := feed.List(ctx, "all", 10)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifs) != 2 {
		t.Fatalf("expected sign-up + sign-in notifications, got %d", len(notifs))
	}
	for _, n := range notifs {
		if n.Status != models.NotificationCompleted {
			t.Fatalf("auth notifications must be completed: %+v", n)
		}
	}
}

func TestAuth_RejectsBadCredentials(t *testing.T) {
	s, _, _ := newTestAuth()
	ctx := context.Background()

	if _, err := s.SignUp(ctx, "farmer", "   "); err == nil {
		t.Fatalf("expected error for empty password")
	}

	if _, err := s.GenerateToken(ctx, "nobody", "pw"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if _, err := s.SignUp(ctx, "farmer", "s3cret"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if _, err := s.GenerateToken(ctx, "farmer", "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestAuth_ParseRejectsForeignToken(t *testing.T) {
	s, _, _ := newTestAuth()
	if _, err := s.ParseToken("not-a-jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}

	other := NewAuthService(newFakeAuthRepo(), &memEventLog{}, NewNotificationFeed(&memEventLog{}), AuthConfig{SigningKey: "other-key"})
	token, err := other.issueToken(42)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := s.ParseToken(token); err == nil {
		t.Fatalf("expected error for token signed with a different key")
	}
}
