package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:v1:"

// RedisStore keeps sessions in Redis with a TTL matching their expiry, so
// stale sessions disappear without a reaper.
type RedisStore struct {
	cache *redis.Client
	ttl   time.Duration
}

// NewRedisStore builds a Redis-backed session store.
func NewRedisStore(cache *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: cache, ttl: ttl}
}

// Create issues a fresh session id and persists the session.
func (s *RedisStore) Create(ctx context.Context, userID string) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		SessionID: uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Active:    true,
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return Session{}, err
	}
	if err := s.cache.Set(ctx, keyPrefix+sess.SessionID, payload, s.ttl).Err(); err != nil {
		return Session{}, fmt.Errorf("persist session: %w", err)
	}
	return sess, nil
}

// Validate loads the session and checks the active flag and expiry. The TTL
// already evicts expired sessions; the explicit check covers clock drift
// between writers.
func (s *RedisStore) Validate(ctx context.Context, sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, ErrInvalid
	}
	payload, err := s.cache.Get(ctx, keyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return Session{}, ErrInvalid
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return Session{}, ErrInvalid
	}
	if !sess.Active || time.Now().UTC().After(sess.ExpiresAt) {
		return Session{}, ErrInvalid
	}
	return sess, nil
}

// Invalidate flips the active flag while keeping the record until its TTL, so
// a logged-out session id can never be revived by re-login races.
func (s *RedisStore) Invalidate(ctx context.Context, sessionID string) error {
	payload, err := s.cache.Get(ctx, keyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil
	}
	sess.Active = false

	updated, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, keyPrefix+sessionID, updated, ttl).Err()
}
