// Package user stores platform accounts.
//
// Error contract (all stores follow it):
//   - return a CodeNotFound error when the entity does not exist
//   - return a CodeConflict error on uniqueness violations
//   - return wrapped errors with context for infrastructure failures
package user

import (
	"context"
	"sync"

	"rbi-platform/internal/auth/models"
	"rbi-platform/pkg/apperrors"
)

// InMemoryStore keeps users in memory for dev and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]models.User
	byEmail map[string]string
}

// New constructs an empty in-memory user store.
func New() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

// Create saves a new user, enforcing email uniqueness.
func (s *InMemoryStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[user.Email]; exists {
		return apperrors.New(apperrors.CodeConflict, "email already registered")
	}
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return nil
}

// FindByID returns a user by ID.
func (s *InMemoryStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return models.User{}, apperrors.New(apperrors.CodeNotFound, "user not found")
}

// FindByEmail returns a user by normalized email.
func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byEmail[email]; ok {
		return s.byID[id], nil
	}
	return models.User{}, apperrors.New(apperrors.CodeNotFound, "user not found")
}

// Update overwrites an existing user record.
func (s *InMemoryStore) Update(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[user.ID]; !ok {
		return apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	s.byID[user.ID] = user
	return nil
}
