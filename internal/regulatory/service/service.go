// Package service manages regulatory circulars and their acknowledgement
// into compliance items.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	compliancemodels "rbi-platform/internal/compliance/models"
	"rbi-platform/internal/regulatory/models"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/audit"
	"rbi-platform/pkg/requestcontext"
)

// Store persists circulars.
type Store interface {
	Create(ctx context.Context, c models.Circular) error
	FindByID(ctx context.Context, id string) (models.Circular, error)
	Update(ctx context.Context, c models.Circular) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.Filter) ([]models.Circular, error)
}

// ItemCreator is the narrow port into the compliance module. Acknowledging a
// circular opens a compliance item without this package importing the
// compliance service.
type ItemCreator interface {
	CreateItem(ctx context.Context, req *compliancemodels.CreateItemRequest) (*compliancemodels.Item, error)
}

// Auditor records audit events.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Notifier announces new circulars. Nil is allowed.
type Notifier interface {
	CircularAcknowledged(ctx context.Context, circular models.Circular, itemID string)
}

// Service ties the circular store to the compliance port.
type Service struct {
	store    Store
	items    ItemCreator
	auditor  Auditor
	notifier Notifier
	logger   *slog.Logger
}

// New creates the regulatory service. notifier may be nil.
func New(store Store, items ItemCreator, auditor Auditor, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, items: items, auditor: auditor, notifier: notifier, logger: logger}
}

// Create records a circular in status new.
func (s *Service) Create(ctx context.Context, req *models.CreateRequest) (*models.Circular, error) {
	if req == nil {
		return nil, apperrors.New(apperrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	circular := models.Circular{
		ID:          uuid.NewString(),
		Reference:   req.Reference,
		Title:       req.Title,
		Regulator:   req.Regulator,
		Summary:     req.Summary,
		PublishedAt: req.PublishedAt,
		EffectiveAt: req.EffectiveAt,
		Tags:        req.Tags,
		Status:      models.StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, circular); err != nil {
		return nil, err
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionCircularCreated,
		ActorID: requestcontext.UserID(ctx),
		Subject: circular.Reference,
	}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to record circular")
	}
	return &circular, nil
}

// Get returns a circular by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Circular, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns circulars matching the filter.
func (s *Service) List(ctx context.Context, filter models.Filter) ([]models.Circular, error) {
	if filter.Status != "" && !models.ValidStatus(filter.Status) {
		return nil, apperrors.New(apperrors.CodeBadRequest, "unknown status")
	}
	return s.store.List(ctx, filter)
}

// Update applies the populated fields of req to a circular.
func (s *Service) Update(ctx context.Context, id string, req *models.UpdateRequest) (*models.Circular, error) {
	if req == nil {
		return nil, apperrors.New(apperrors.CodeBadRequest, "request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.Summary != nil {
		c.Summary = *req.Summary
	}
	if req.Status != nil {
		c.Status = *req.Status
	}
	if req.Tags != nil {
		c.Tags = *req.Tags
	}
	c.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes a circular.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// AcknowledgeResult pairs the moved circular with the item it opened.
type AcknowledgeResult struct {
	Circular models.Circular        `json:"circular"`
	Item     *compliancemodels.Item `json:"item"`
}

// Acknowledge moves a new circular to under_review and opens a compliance
// item tracking the obligation. Only circulars in status new can be
// acknowledged.
func (s *Service) Acknowledge(ctx context.Context, id string, req *models.AcknowledgeRequest) (*AcknowledgeResult, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != models.StatusNew {
		return nil, apperrors.Newf(apperrors.CodeConflict, "circular is already %s", c.Status)
	}
	if req == nil {
		req = &models.AcknowledgeRequest{}
	}

	category := req.Category
	if category == "" {
		category = "regulatory"
	}
	severity := compliancemodels.Severity(req.Severity)
	if severity == "" {
		severity = compliancemodels.SeverityHigh
	}

	item, err := s.items.CreateItem(ctx, &compliancemodels.CreateItemRequest{
		CircularID: c.ID,
		Title:      "Implement " + c.Reference + ": " + c.Title,
		Category:   category,
		Severity:   severity,
		Owner:      req.Owner,
		DueDate:    req.DueDate,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to open compliance item")
	}

	c.Status = models.StatusUnderReview
	c.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, c); err != nil {
		return nil, err
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Action:   audit.ActionCircularAcknowledged,
		ActorID:  requestcontext.UserID(ctx),
		Subject:  c.Reference,
		Decision: item.ID,
	}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to record acknowledgement")
	}

	if s.notifier != nil {
		s.notifier.CircularAcknowledged(ctx, c, item.ID)
	}
	return &AcknowledgeResult{Circular: c, Item: item}, nil
}
