// Package service scores risk assessments.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"rbi-platform/internal/platform/metrics"
	"rbi-platform/internal/risk/models"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/audit"
	"rbi-platform/pkg/requestcontext"
)

// Store persists assessments.
type Store interface {
	Create(ctx context.Context, a models.Assessment) error
	FindByID(ctx context.Context, id string) (models.Assessment, error)
	List(ctx context.Context, entity string) ([]models.Assessment, error)
	CountByLevel(ctx context.Context) (map[models.Level]int, error)
}

// Auditor records audit events.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Notifier raises alerts for elevated assessments. Nil is allowed.
type Notifier interface {
	RiskElevated(ctx context.Context, assessment models.Assessment)
}

// Service scores and stores assessments.
type Service struct {
	store    Store
	weights  CategoryWeights
	auditor  Auditor
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New creates the risk service. notifier and metrics may be nil; nil weights
// fall back to the default profile.
func New(store Store, weights CategoryWeights, auditor Auditor, notifier Notifier, met *metrics.Metrics, logger *slog.Logger) *Service {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Service{
		store:    store,
		weights:  weights,
		auditor:  auditor,
		notifier: notifier,
		metrics:  met,
		logger:   logger,
		tracer:   otel.Tracer("rbi-platform/risk"),
	}
}

// Assess scores the submitted categories and stores the assessment. The
// overall score is always computed here, never trusted from the request.
func (s *Service) Assess(ctx context.Context, req *models.CreateRequest) (*models.Assessment, error) {
	ctx, span := s.tracer.Start(ctx, "risk.assess")
	defer span.End()

	if req == nil {
		return nil, apperrors.New(apperrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	overall := s.weights.Score(req.CategoryScores)
	level := LevelFor(overall)
	span.SetAttributes(
		attribute.String("risk.entity", req.Entity),
		attribute.String("risk.level", string(level)),
	)

	assessment := models.Assessment{
		ID:             uuid.NewString(),
		Entity:         req.Entity,
		CategoryScores: req.CategoryScores,
		OverallScore:   overall,
		Level:          level,
		AssessedBy:     requestcontext.UserID(ctx),
		AssessedAt:     requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, assessment); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AssessmentsScored.Inc()
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		Action:   audit.ActionAssessmentScored,
		ActorID:  requestcontext.UserID(ctx),
		Subject:  assessment.ID,
		Decision: string(level),
	}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to record assessment")
	}

	if s.notifier != nil && (level == models.LevelHigh || level == models.LevelCritical) {
		s.notifier.RiskElevated(ctx, assessment)
	}
	return &assessment, nil
}

// Get returns an assessment by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Assessment, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns assessments, optionally filtered by entity.
func (s *Service) List(ctx context.Context, entity string) ([]models.Assessment, error) {
	return s.store.List(ctx, entity)
}

// Summary counts assessments per level.
func (s *Service) Summary(ctx context.Context) (*models.Summary, error) {
	counts, err := s.store.CountByLevel(ctx)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return &models.Summary{Total: total, Levels: counts}, nil
}
