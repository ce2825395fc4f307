// Package store persists risk assessments.
package store

import (
	"context"
	"sort"
	"sync"

	"rbi-platform/internal/risk/models"
	"rbi-platform/pkg/apperrors"
)

// InMemoryStore keeps assessments in a mutex-guarded map.
type InMemoryStore struct {
	mu          sync.RWMutex
	assessments map[string]models.Assessment
}

// New creates an empty memory store.
func New() *InMemoryStore {
	return &InMemoryStore{assessments: make(map[string]models.Assessment)}
}

// Create inserts an assessment.
func (s *InMemoryStore) Create(_ context.Context, a models.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assessments[a.ID]; ok {
		return apperrors.New(apperrors.CodeConflict, "assessment already exists")
	}
	s.assessments[a.ID] = a
	return nil
}

// FindByID returns an assessment by its id.
func (s *InMemoryStore) FindByID(_ context.Context, id string) (models.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assessments[id]
	if !ok {
		return models.Assessment{}, apperrors.New(apperrors.CodeNotFound, "assessment not found")
	}
	return a, nil
}

// List returns assessments newest first, optionally filtered by entity.
func (s *InMemoryStore) List(_ context.Context, entity string) ([]models.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Assessment, 0, len(s.assessments))
	for _, a := range s.assessments {
		if entity != "" && a.Entity != entity {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssessedAt.After(out[j].AssessedAt) })
	return out, nil
}

// CountByLevel tallies assessments per level.
func (s *InMemoryStore) CountByLevel(_ context.Context) (map[models.Level]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[models.Level]int)
	for _, a := range s.assessments {
		out[a.Level]++
	}
	return out, nil
}
