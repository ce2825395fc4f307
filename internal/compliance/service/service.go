// Package service implements compliance item and workflow management.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"rbi-platform/internal/compliance/models"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/audit"
	"rbi-platform/pkg/requestcontext"
)

// ItemStore persists compliance items.
type ItemStore interface {
	Create(ctx context.Context, item models.Item) error
	FindByID(ctx context.Context, id string) (models.Item, error)
	Update(ctx context.Context, item models.Item) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error)
	CountByStatus(ctx context.Context) (map[models.ItemStatus]int, error)
}

// WorkflowStore persists remediation workflows.
type WorkflowStore interface {
	Create(ctx context.Context, wf models.Workflow) error
	FindByID(ctx context.Context, id string) (models.Workflow, error)
	Update(ctx context.Context, wf models.Workflow) error
	List(ctx context.Context) ([]models.Workflow, error)
}

// Auditor records audit events.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service ties the stores together.
type Service struct {
	items     ItemStore
	workflows WorkflowStore
	auditor   Auditor
	logger    *slog.Logger
}

// New creates the compliance service.
func New(items ItemStore, workflows WorkflowStore, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{items: items, workflows: workflows, auditor: auditor, logger: logger}
}

// CreateItem opens a new compliance item.
//
// Item creation is a compliance-category audit action: if the event cannot be
// persisted the creation fails rather than standing unrecorded.
func (s *Service) CreateItem(ctx context.Context, req *models.CreateItemRequest) (*models.Item, error) {
	if req == nil {
		return nil, apperrors.New(apperrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	item := models.Item{
		ID:         uuid.NewString(),
		CircularID: req.CircularID,
		Title:      req.Title,
		Category:   req.Category,
		Severity:   req.Severity,
		Status:     models.ItemStatusOpen,
		Owner:      req.Owner,
		DueDate:    req.DueDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionItemCreated,
		ActorID: requestcontext.UserID(ctx),
		Subject: item.ID,
	}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to record item creation")
	}
	return &item, nil
}

// GetItem returns an item by id.
func (s *Service) GetItem(ctx context.Context, id string) (*models.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns items matching the filter.
func (s *Service) ListItems(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	if filter.Status != "" && !models.ValidItemStatus(filter.Status) {
		return nil, apperrors.New(apperrors.CodeBadRequest, "unknown status")
	}
	if filter.Severity != "" && !models.ValidSeverity(filter.Severity) {
		return nil, apperrors.New(apperrors.CodeBadRequest, "unknown severity")
	}
	return s.items.List(ctx, filter)
}

// UpdateItem applies the populated fields of req to an item. Status changes
// are audited separately from other edits.
func (s *Service) UpdateItem(ctx context.Context, id string, req *models.UpdateItemRequest) (*models.Item, error) {
	if req == nil {
		return nil, apperrors.New(apperrors.CodeBadRequest, "request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previousStatus := item.Status
	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Severity != nil {
		item.Severity = *req.Severity
	}
	if req.Status != nil {
		item.Status = *req.Status
	}
	if req.Owner != nil {
		item.Owner = *req.Owner
	}
	if req.DueDate != nil {
		item.DueDate = req.DueDate
	}
	item.UpdatedAt = requestcontext.Now(ctx)

	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}

	if item.Status != previousStatus {
		if err := s.auditor.Emit(ctx, audit.Event{
			Action:   audit.ActionItemStatusChanged,
			ActorID:  requestcontext.UserID(ctx),
			Subject:  item.ID,
			Decision: string(item.Status),
			Reason:   "from " + string(previousStatus),
		}); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to record status change")
		}
	}
	return &item, nil
}

// DeleteItem removes an item.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	return s.items.Delete(ctx, id)
}

// CreateWorkflow creates a workflow with all tasks pending.
func (s *Service) CreateWorkflow(ctx context.Context, req *models.CreateWorkflowRequest) (*models.Workflow, error) {
	if req == nil {
		return nil, apperrors.New(apperrors.CodeBadRequest, "request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.ItemID != "" {
		if _, err := s.items.FindByID(ctx, req.ItemID); err != nil {
			return nil, apperrors.New(apperrors.CodeBadRequest, "item_id does not reference a known item")
		}
	}

	now := requestcontext.Now(ctx)
	wf := models.Workflow{
		ID:        uuid.NewString(),
		Name:      req.Name,
		ItemID:    req.ItemID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, task := range req.Tasks {
		wf.Tasks = append(wf.Tasks, models.Task{
			ID:        uuid.NewString(),
			Name:      task.Name,
			Assignee:  task.Assignee,
			Status:    models.TaskStatusPending,
			UpdatedAt: now,
		})
	}
	if err := s.workflows.Create(ctx, wf); err != nil {
		return nil, err
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionWorkflowCreated,
		ActorID: requestcontext.UserID(ctx),
		Subject: wf.ID,
	}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to record workflow creation")
	}
	return &wf, nil
}

// GetWorkflow returns a workflow by id.
func (s *Service) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	wf, err := s.workflows.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &wf, nil
}

// ListWorkflows returns all workflows.
func (s *Service) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	return s.workflows.List(ctx)
}

// TransitionTask moves a workflow task to a new status. Illegal moves are
// rejected without touching the store.
func (s *Service) TransitionTask(ctx context.Context, workflowID, taskID string, to models.TaskStatus) (*models.Workflow, error) {
	wf, err := s.workflows.FindByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, task := range wf.Tasks {
		if task.ID == taskID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperrors.New(apperrors.CodeNotFound, "task not found")
	}

	from := wf.Tasks[idx].Status
	if !models.CanTransition(from, to) {
		return nil, apperrors.Newf(apperrors.CodeBadRequest,
			"cannot move task from %s to %s", from, to)
	}

	now := requestcontext.Now(ctx)
	wf.Tasks[idx].Status = to
	wf.Tasks[idx].UpdatedAt = now
	wf.UpdatedAt = now

	if err := s.workflows.Update(ctx, wf); err != nil {
		return nil, err
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Action:   audit.ActionTaskStatusChanged,
		ActorID:  requestcontext.UserID(ctx),
		Subject:  taskID,
		Decision: string(to),
		Reason:   "from " + string(from),
	}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to record task transition")
	}
	return &wf, nil
}

// CountItemsByStatus exposes the status tally for the reporting dashboard.
func (s *Service) CountItemsByStatus(ctx context.Context) (map[models.ItemStatus]int, error) {
	return s.items.CountByStatus(ctx)
}
