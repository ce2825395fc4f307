// Package store persists notifications.
package store

import (
	"context"
	"sort"
	"sync"

	"rbi-platform/internal/notifications/models"
	"rbi-platform/pkg/apperrors"
)

// InMemoryStore keeps notifications in a mutex-guarded map.
type InMemoryStore struct {
	mu            sync.RWMutex
	notifications map[string]models.Notification
}

// New creates an empty memory store.
func New() *InMemoryStore {
	return &InMemoryStore{notifications: make(map[string]models.Notification)}
}

// Create inserts a notification.
func (s *InMemoryStore) Create(_ context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[n.ID] = n
	return nil
}

// FindByID returns a notification by its id.
func (s *InMemoryStore) FindByID(_ context.Context, id string) (models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notifications[id]
	if !ok {
		return models.Notification{}, apperrors.New(apperrors.CodeNotFound, "notification not found")
	}
	return n, nil
}

// Update replaces a stored notification.
func (s *InMemoryStore) Update(_ context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[n.ID]; !ok {
		return apperrors.New(apperrors.CodeNotFound, "notification not found")
	}
	s.notifications[n.ID] = n
	return nil
}

// ListForUser returns a user's notifications plus broadcasts, newest first.
func (s *InMemoryStore) ListForUser(_ context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, 0)
	for _, n := range s.notifications {
		if n.UserID != "" && n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MarkAllRead flips every notification visible to the user to read and
// returns how many changed.
func (s *InMemoryStore) MarkAllRead(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for id, n := range s.notifications {
		if n.UserID != "" && n.UserID != userID {
			continue
		}
		if n.Read {
			continue
		}
		n.Read = true
		s.notifications[id] = n
		changed++
	}
	return changed, nil
}
