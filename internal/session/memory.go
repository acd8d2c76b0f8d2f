package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
}

// NewMemoryStore constructs an in-memory session store for tests and dev mode.
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{sessions: make(map[string]Session), ttl: ttl}
}

func (s *memoryStore) Create(_ context.Context, userID string) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		SessionID: uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Active:    true,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.SessionID] = sess
	return sess, nil
}

func (s *memoryStore) Validate(_ context.Context, sessionID string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok || !sess.Active || time.Now().UTC().After(sess.ExpiresAt) {
		return Session{}, ErrInvalid
	}
	return sess, nil
}

func (s *memoryStore) Invalidate(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.Active = false
		s.sessions[sessionID] = sess
	}
	return nil
}
