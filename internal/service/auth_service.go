package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartfarm/internal/models"
	"smartfarm/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthConfig carries token settings from the config file.
type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

const defaultTokenTTL = time.Hour

// Domain errors for auth flows.
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid token")
)

// AuthService handles user auth logic. Sign-up and sign-in are logged and
// surface in the notification feed.
type AuthService struct {
	authRepo repository.Authorization
	events   repository.EventLog
	feed     *NotificationFeed
	cfg      AuthConfig
}

func NewAuthService(repo repository.Authorization, events repository.EventLog, feed *NotificationFeed, cfg AuthConfig) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	return &AuthService{authRepo: repo, events: events, feed: feed, cfg: cfg}
}

// SignUp hashes the password and creates a new user.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (int, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("invalid password: %w", err)
	}
	id, err := s.authRepo.Create(username, hash)
	if err != nil {
		return 0, err
	}

	s.logAuthEvent(ctx, models.EventUserSignedUp, username)
	_ = s.feed.userSignedUp(ctx, username)
	return id, nil
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// GenerateToken validates credentials and returns a signed JWT.
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	u, err := s.authRepo.GetByUsername(username)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrUserNotFound
	}

	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return "", ErrInvalidPassword
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return "", err
	}

	s.logAuthEvent(ctx, models.EventUserSignedIn, username)
	_ = s.feed.userSignedIn(ctx, username)
	return token, nil
}

// ParseToken parses a JWT and returns the user id.
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.SigningKey), nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}

// logAuthEvent records the auth fact in the log for audit. Best-effort: an
// audit write failure must not fail the sign-in itself.
func (s *AuthService) logAuthEvent(ctx context.Context, kind, username string) {
	e, err := models.NewEvent(kind, time.Now().UTC(), models.AuthEventPayload{Username: username})
	if err != nil {
		return
	}
	_, _ = s.events.Append(ctx, e)
}

// helper: hash password safely
func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// helper: issue a signed JWT for a user
func (s *AuthService) issueToken(userID int) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	})
	return token.SignedString([]byte(s.cfg.SigningKey))
}
