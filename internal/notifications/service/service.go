// Package service dispatches and manages user notifications. It satisfies
// the notifier ports of the integrations, risk, and regulatory modules so
// domain events land in each user's inbox without those modules knowing
// about this one.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	intmodels "rbi-platform/internal/integrations/models"
	"rbi-platform/internal/notifications/models"
	regmodels "rbi-platform/internal/regulatory/models"
	riskmodels "rbi-platform/internal/risk/models"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/audit"
	"rbi-platform/pkg/requestcontext"
)

// Store persists notifications.
type Store interface {
	Create(ctx context.Context, n models.Notification) error
	FindByID(ctx context.Context, id string) (models.Notification, error)
	Update(ctx context.Context, n models.Notification) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// Auditor records audit events.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service stores and lists notifications.
type Service struct {
	store   Store
	auditor Auditor
	logger  *slog.Logger
}

// New creates the notification service.
func New(store Store, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{store: store, auditor: auditor, logger: logger}
}

// send stores a notification. Delivery failures are logged, never surfaced:
// a lost toast must not fail the operation that produced it.
func (s *Service) send(ctx context.Context, n models.Notification) {
	n.ID = uuid.NewString()
	n.CreatedAt = requestcontext.Now(ctx)
	if err := s.store.Create(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "failed to store notification", "kind", string(n.Kind), "error", err)
		return
	}
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionNotificationSent,
		UserID:  n.UserID,
		Subject: string(n.Kind),
	})
}

// CircularAcknowledged notifies the acknowledging user about the opened item.
func (s *Service) CircularAcknowledged(ctx context.Context, circular regmodels.Circular, itemID string) {
	s.send(ctx, models.Notification{
		UserID:  requestcontext.UserID(ctx),
		Kind:    models.KindCircularAcknowledged,
		Subject: fmt.Sprintf("Circular %s moved to review", circular.Reference),
		Body:    fmt.Sprintf("Compliance item %s tracks the implementation of %q.", itemID, circular.Title),
	})
}

// RiskElevated broadcasts a high or critical assessment.
func (s *Service) RiskElevated(ctx context.Context, assessment riskmodels.Assessment) {
	s.send(ctx, models.Notification{
		Kind:    models.KindRiskElevated,
		Subject: fmt.Sprintf("Risk level %s for %s", assessment.Level, assessment.Entity),
		Body:    fmt.Sprintf("Overall score %s. Review assessment %s.", assessment.OverallScore, assessment.ID),
	})
}

// ConnectorDown broadcasts a connector outage.
func (s *Service) ConnectorDown(ctx context.Context, connector intmodels.Connector, detail string) {
	s.send(ctx, models.Notification{
		Kind:    models.KindConnectorDown,
		Subject: fmt.Sprintf("Connector %s is down", connector.Name),
		Body:    detail,
	})
}

// List returns the caller's notifications.
func (s *Service) List(ctx context.Context, unreadOnly bool) ([]models.Notification, error) {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "not authenticated")
	}
	return s.store.ListForUser(ctx, userID, unreadOnly)
}

// MarkRead flips one notification to read. Users can only touch
// notifications they can see.
func (s *Service) MarkRead(ctx context.Context, id string) (*models.Notification, error) {
	n, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	userID := requestcontext.UserID(ctx)
	if n.UserID != "" && n.UserID != userID {
		return nil, apperrors.New(apperrors.CodeNotFound, "notification not found")
	}
	if !n.Read {
		n.Read = true
		if err := s.store.Update(ctx, n); err != nil {
			return nil, err
		}
	}
	return &n, nil
}

// MarkAllRead flips every visible notification to read.
func (s *Service) MarkAllRead(ctx context.Context) (int, error) {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		return 0, apperrors.New(apperrors.CodeUnauthorized, "not authenticated")
	}
	return s.store.MarkAllRead(ctx, userID)
}
