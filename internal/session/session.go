package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalid covers missing, expired, and deactivated sessions alike so
	// callers cannot distinguish which it was.
	ErrInvalid = errors.New("invalid or expired session")
)

// Session ties a session id to its owning user for a bounded lifetime. The
// core consults it read-only; creation and invalidation happen at the auth
// boundary.
type Session struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

// Store manages session lifecycle.
type Store interface {
	// Create persists a new session expiring after the store's TTL.
	Create(ctx context.Context, userID string) (Session, error)
	// Validate returns the session only when it is active and unexpired.
	Validate(ctx context.Context, sessionID string) (Session, error)
	// Invalidate deactivates the session; validating it afterwards fails.
	Invalidate(ctx context.Context, sessionID string) error
}
