// Package store persists connectors.
//
// Store errors carry apperrors codes so handlers map them to HTTP statuses
// without inspecting store internals.
package store

import (
	"context"
	"sort"
	"sync"

	"rbi-platform/internal/integrations/models"
	"rbi-platform/pkg/apperrors"
)

// InMemoryStore keeps connectors in a mutex-guarded map.
type InMemoryStore struct {
	mu         sync.RWMutex
	connectors map[string]models.Connector
}

// New creates an empty memory store.
func New() *InMemoryStore {
	return &InMemoryStore{connectors: make(map[string]models.Connector)}
}

// Create inserts a connector. Names are unique per kind.
func (s *InMemoryStore) Create(_ context.Context, c models.Connector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.connectors {
		if existing.Kind == c.Kind && existing.Name == c.Name {
			return apperrors.New(apperrors.CodeConflict, "connector with this name already exists")
		}
	}
	s.connectors[c.ID] = c
	return nil
}

// FindByID returns a connector by its id.
func (s *InMemoryStore) FindByID(_ context.Context, id string) (models.Connector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.connectors[id]
	if !ok {
		return models.Connector{}, apperrors.New(apperrors.CodeNotFound, "connector not found")
	}
	return c, nil
}

// Update replaces a stored connector.
func (s *InMemoryStore) Update(_ context.Context, c models.Connector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.connectors[c.ID]; !ok {
		return apperrors.New(apperrors.CodeNotFound, "connector not found")
	}
	s.connectors[c.ID] = c
	return nil
}

// Delete removes a connector.
func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.connectors[id]; !ok {
		return apperrors.New(apperrors.CodeNotFound, "connector not found")
	}
	delete(s.connectors, id)
	return nil
}

// List returns connectors sorted by name, optionally filtered by kind.
func (s *InMemoryStore) List(_ context.Context, kind models.Kind) ([]models.Connector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Connector, 0, len(s.connectors))
	for _, c := range s.connectors {
		if kind != "" && c.Kind != kind {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
