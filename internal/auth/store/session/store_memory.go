// Package session stores login sessions.
package session

import (
	"context"
	"sync"
	"time"

	"rbi-platform/internal/auth/models"
	"rbi-platform/pkg/apperrors"
)

// InMemoryStore keeps sessions in memory for dev and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

// New constructs an empty in-memory session store.
func New() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]models.Session)}
}

// Create saves a new session.
func (s *InMemoryStore) Create(_ context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

// FindByID returns a session by ID.
func (s *InMemoryStore) FindByID(_ context.Context, id string) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[id]; ok {
		return session, nil
	}
	return models.Session{}, apperrors.New(apperrors.CodeNotFound, "session not found")
}

// Touch advances LastSeenAt, and LastRefreshed when refreshed is true.
func (s *InMemoryStore) Touch(_ context.Context, id string, now time.Time, refreshed bool) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return models.Session{}, apperrors.New(apperrors.CodeNotFound, "session not found")
	}
	session.LastSeenAt = now
	if refreshed {
		session.LastRefreshed = &now
	}
	s.sessions[id] = session
	return session, nil
}

// Revoke marks a session revoked. Revoking an already-revoked session is a
// no-op, not an error.
func (s *InMemoryStore) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return apperrors.New(apperrors.CodeNotFound, "session not found")
	}
	session.Status = models.SessionStatusRevoked
	s.sessions[id] = session
	return nil
}

// ListByUser returns all sessions belonging to a user.
func (s *InMemoryStore) ListByUser(_ context.Context, userID string) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			out = append(out, session)
		}
	}
	return out, nil
}
