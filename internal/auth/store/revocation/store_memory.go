package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore tracks revoked sessions with expiry for dev and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	ttl     time.Duration
}

// NewInMemoryStore creates a memory-backed revocation store.
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{revoked: make(map[string]time.Time), ttl: ttl}
}

// Revoke marks a session revoked.
func (s *InMemoryStore) Revoke(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[sessionID] = time.Now().Add(s.ttl)
	return nil
}

// IsRevoked reports whether a session has been revoked and the mark has not
// expired yet.
func (s *InMemoryStore) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	expiry, ok := s.revoked[sessionID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		s.mu.Lock()
		delete(s.revoked, sessionID)
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}
