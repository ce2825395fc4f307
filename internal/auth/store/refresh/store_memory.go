// Package refresh stores single-use refresh tokens. Consume is the critical
// operation: it must observe and flip Used atomically so two concurrent
// refreshes with the same token cannot both succeed.
package refresh

import (
	"context"
	"sync"
	"time"

	"rbi-platform/internal/auth/models"
	"rbi-platform/pkg/apperrors"
)

// ErrAlreadyUsed distinguishes token reuse from other failures: the service
// treats reuse as theft and revokes the whole session.
var ErrAlreadyUsed = apperrors.New(apperrors.CodeUnauthorized, "refresh token already used")

// InMemoryStore keeps refresh tokens in memory for dev and tests.
type InMemoryStore struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshTokenRecord
}

// New constructs an empty in-memory refresh token store.
func New() *InMemoryStore {
	return &InMemoryStore{tokens: make(map[string]*models.RefreshTokenRecord)}
}

// Create saves a new refresh token record.
func (s *InMemoryStore) Create(_ context.Context, record *models.RefreshTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *record
	s.tokens[record.Token] = &copied
	return nil
}

// Find returns a refresh token record without consuming it.
func (s *InMemoryStore) Find(_ context.Context, token string) (*models.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.tokens[token]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "refresh token not found")
	}
	copied := *record
	return &copied, nil
}

// Consume atomically marks the token used and records its replacement.
// Returns ErrAlreadyUsed when the token was consumed before, and a
// CodeUnauthorized error when it is expired.
func (s *InMemoryStore) Consume(_ context.Context, token, replacedBy string, now time.Time) (*models.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tokens[token]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "refresh token not found")
	}
	if record.Used {
		copied := *record
		return &copied, ErrAlreadyUsed
	}
	if now.After(record.ExpiresAt) {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "refresh token expired")
	}

	record.Used = true
	record.UsedAt = &now
	record.ReplacedBy = replacedBy
	copied := *record
	return &copied, nil
}

// RevokeBySession deletes every token belonging to a session. Used when
// reuse is detected or the user logs out.
func (s *InMemoryStore) RevokeBySession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, record := range s.tokens {
		if record.SessionID == sessionID {
			delete(s.tokens, token)
		}
	}
	return nil
}
