package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/fleetgate/internal/infrastructure/redis"
)

// SessionStore persists the single active refresh token per subject.
// Keys follow the pattern subject:<id>:refresh and carry a TTL equal to
// the refresh token lifetime, so abandoned sessions expire on their own.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a session store over the key-value client.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(subject string) string {
	return "subject:" + subject + ":refresh"
}

// Save stores the refresh token for a subject, replacing any previous
// one and resetting the TTL. Login and refresh both land here.
func (s *SessionStore) Save(ctx context.Context, subject, token string) error {
	if err := s.client.Set(ctx, sessionKey(subject), token, s.ttl); err != nil {
		return fmt.Errorf("saving session for %s: %w", subject, err)
	}
	return nil
}

// Get returns the stored refresh token for a subject. An absent or
// expired entry is reported as ("", false, nil).
func (s *SessionStore) Get(ctx context.Context, subject string) (string, bool, error) {
	token, err := s.client.Get(ctx, sessionKey(subject))
	if errors.Is(err, redis.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading session for %s: %w", subject, err)
	}
	return token, true, nil
}

// Delete removes the subject's session. Returns true if a session
// actually existed.
func (s *SessionStore) Delete(ctx context.Context, subject string) (bool, error) {
	existed, err := s.client.Del(ctx, sessionKey(subject))
	if err != nil {
		return false, fmt.Errorf("deleting session for %s: %w", subject, err)
	}
	return existed, nil
}
