// Package store persists regulatory circulars.
package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"rbi-platform/internal/regulatory/models"
	"rbi-platform/pkg/apperrors"
)

// InMemoryStore keeps circulars in a mutex-guarded map with a reference
// uniqueness index.
type InMemoryStore struct {
	mu          sync.RWMutex
	circulars   map[string]models.Circular
	byReference map[string]string
}

// New creates an empty memory store.
func New() *InMemoryStore {
	return &InMemoryStore{
		circulars:   make(map[string]models.Circular),
		byReference: make(map[string]string),
	}
}

// Create inserts a circular. A duplicate reference conflicts.
func (s *InMemoryStore) Create(_ context.Context, c models.Circular) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byReference[c.Reference]; ok {
		return apperrors.New(apperrors.CodeConflict, "circular with this reference already exists")
	}
	s.circulars[c.ID] = cloneCircular(c)
	s.byReference[c.Reference] = c.ID
	return nil
}

// FindByID returns a circular by its id.
func (s *InMemoryStore) FindByID(_ context.Context, id string) (models.Circular, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.circulars[id]
	if !ok {
		return models.Circular{}, apperrors.New(apperrors.CodeNotFound, "circular not found")
	}
	return cloneCircular(c), nil
}

// Update replaces a stored circular. The reference never changes.
func (s *InMemoryStore) Update(_ context.Context, c models.Circular) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.circulars[c.ID]; !ok {
		return apperrors.New(apperrors.CodeNotFound, "circular not found")
	}
	s.circulars[c.ID] = cloneCircular(c)
	return nil
}

// Delete removes a circular and frees its reference.
func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.circulars[id]
	if !ok {
		return apperrors.New(apperrors.CodeNotFound, "circular not found")
	}
	delete(s.byReference, c.Reference)
	delete(s.circulars, id)
	return nil
}

// List returns circulars newest first by publication date, narrowed by the
// filter.
func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]models.Circular, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Circular, 0, len(s.circulars))
	for _, c := range s.circulars {
		if filter.Regulator != "" && c.Regulator != filter.Regulator {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Tag != "" && !slices.Contains(c.Tags, filter.Tag) {
			continue
		}
		out = append(out, cloneCircular(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	return out, nil
}

// cloneCircular copies the tag slice so callers cannot mutate stored state.
func cloneCircular(c models.Circular) models.Circular {
	tags := make([]string, len(c.Tags))
	copy(tags, c.Tags)
	c.Tags = tags
	return c
}
