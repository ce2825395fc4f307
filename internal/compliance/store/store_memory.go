// Package store persists compliance items and workflows.
package store

import (
	"context"
	"sort"
	"sync"

	"rbi-platform/internal/compliance/models"
	"rbi-platform/pkg/apperrors"
)

// InMemoryItemStore keeps items in a mutex-guarded map.
type InMemoryItemStore struct {
	mu    sync.RWMutex
	items map[string]models.Item
}

// NewItemStore creates an empty memory item store.
func NewItemStore() *InMemoryItemStore {
	return &InMemoryItemStore{items: make(map[string]models.Item)}
}

// Create inserts an item.
func (s *InMemoryItemStore) Create(_ context.Context, item models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; ok {
		return apperrors.New(apperrors.CodeConflict, "item already exists")
	}
	s.items[item.ID] = item
	return nil
}

// FindByID returns an item by its id.
func (s *InMemoryItemStore) FindByID(_ context.Context, id string) (models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return models.Item{}, apperrors.New(apperrors.CodeNotFound, "item not found")
	}
	return item, nil
}

// Update replaces a stored item.
func (s *InMemoryItemStore) Update(_ context.Context, item models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		return apperrors.New(apperrors.CodeNotFound, "item not found")
	}
	s.items[item.ID] = item
	return nil
}

// Delete removes an item.
func (s *InMemoryItemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return apperrors.New(apperrors.CodeNotFound, "item not found")
	}
	delete(s.items, id)
	return nil
}

// List returns items newest first, narrowed by the filter.
func (s *InMemoryItemStore) List(_ context.Context, filter models.ItemFilter) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Item, 0, len(s.items))
	for _, item := range s.items {
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.Severity != "" && item.Severity != filter.Severity {
			continue
		}
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// CountByStatus tallies items per status for the dashboard.
func (s *InMemoryItemStore) CountByStatus(_ context.Context) (map[models.ItemStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[models.ItemStatus]int)
	for _, item := range s.items {
		out[item.Status]++
	}
	return out, nil
}

// InMemoryWorkflowStore keeps workflows in a mutex-guarded map.
type InMemoryWorkflowStore struct {
	mu        sync.RWMutex
	workflows map[string]models.Workflow
}

// NewWorkflowStore creates an empty memory workflow store.
func NewWorkflowStore() *InMemoryWorkflowStore {
	return &InMemoryWorkflowStore{workflows: make(map[string]models.Workflow)}
}

// Create inserts a workflow.
func (s *InMemoryWorkflowStore) Create(_ context.Context, wf models.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[wf.ID]; ok {
		return apperrors.New(apperrors.CodeConflict, "workflow already exists")
	}
	s.workflows[wf.ID] = cloneWorkflow(wf)
	return nil
}

// FindByID returns a workflow by its id.
func (s *InMemoryWorkflowStore) FindByID(_ context.Context, id string) (models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wf, ok := s.workflows[id]
	if !ok {
		return models.Workflow{}, apperrors.New(apperrors.CodeNotFound, "workflow not found")
	}
	return cloneWorkflow(wf), nil
}

// Update replaces a stored workflow.
func (s *InMemoryWorkflowStore) Update(_ context.Context, wf models.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[wf.ID]; !ok {
		return apperrors.New(apperrors.CodeNotFound, "workflow not found")
	}
	s.workflows[wf.ID] = cloneWorkflow(wf)
	return nil
}

// List returns workflows sorted by creation time, newest first.
func (s *InMemoryWorkflowStore) List(_ context.Context) ([]models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Workflow, 0, len(s.workflows))
	for _, wf := range s.workflows {
		out = append(out, cloneWorkflow(wf))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// cloneWorkflow copies the task slice so callers cannot mutate stored state.
func cloneWorkflow(wf models.Workflow) models.Workflow {
	tasks := make([]models.Task, len(wf.Tasks))
	copy(tasks, wf.Tasks)
	wf.Tasks = tasks
	return wf
}
