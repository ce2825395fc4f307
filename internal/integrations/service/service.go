// Package service manages external connectors: registration, secret
// lifecycle, and health probing behind a per-connector circuit breaker.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"rbi-platform/internal/integrations/models"
	"rbi-platform/internal/platform/metrics"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/audit"
	"rbi-platform/pkg/platform/circuit"
	"rbi-platform/pkg/platform/secrets"
	"rbi-platform/pkg/requestcontext"
)

// Store persists connectors.
type Store interface {
	Create(ctx context.Context, c models.Connector) error
	FindByID(ctx context.Context, id string) (models.Connector, error)
	Update(ctx context.Context, c models.Connector) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, kind models.Kind) ([]models.Connector, error)
}

// Prober checks whether a connector's endpoint answers.
type Prober interface {
	Probe(ctx context.Context, baseURL string) (time.Duration, error)
}

// Auditor records audit events.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Notifier raises user-facing alerts. Nil is allowed.
type Notifier interface {
	ConnectorDown(ctx context.Context, connector models.Connector, detail string)
}

// Service wires the connector store, prober, and breakers together.
type Service struct {
	store    Store
	prober   Prober
	auditor  Auditor
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu       sync.Mutex
	breakers map[string]*circuit.Breaker
}

// New creates the integration service. notifier and metrics may be nil.
func New(store Store, prober Prober, auditor Auditor, notifier Notifier, met *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		prober:   prober,
		auditor:  auditor,
		notifier: notifier,
		metrics:  met,
		logger:   logger,
		breakers: make(map[string]*circuit.Breaker),
	}
}

// CreateResult carries the one-time plaintext secret back to the caller.
type CreateResult struct {
	Connector models.Connector `json:"connector"`
	Secret    string           `json:"secret"`
}

// Create registers a connector and mints its shared secret. The plaintext
// secret is returned exactly once.
func (s *Service) Create(ctx context.Context, req *models.CreateRequest) (*CreateResult, error) {
	if req == nil {
		return nil, apperrors.New(apperrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	secret, err := secrets.Generate()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to generate secret")
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to hash secret")
	}

	now := requestcontext.Now(ctx)
	connector := models.Connector{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Kind:        req.Kind,
		BaseURL:     req.BaseURL,
		Description: req.Description,
		Enabled:     true,
		Health:      models.HealthUnknown,
		SecretHash:  hash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, connector); err != nil {
		return nil, err
	}

	_ = s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionConnectorCreated,
		ActorID: requestcontext.UserID(ctx),
		Subject: connector.ID,
	})
	return &CreateResult{Connector: connector, Secret: secret}, nil
}

// Get returns a connector by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Connector, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns connectors, optionally filtered by kind.
func (s *Service) List(ctx context.Context, kind models.Kind) ([]models.Connector, error) {
	if kind != "" && !models.ValidKind(kind) {
		return nil, apperrors.New(apperrors.CodeBadRequest, "unknown connector kind")
	}
	return s.store.List(ctx, kind)
}

// Update applies the populated fields of req to a connector.
func (s *Service) Update(ctx context.Context, id string, req *models.UpdateRequest) (*models.Connector, error) {
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
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.BaseURL != nil {
		c.BaseURL = *req.BaseURL
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Enabled != nil {
		c.Enabled = *req.Enabled
	}
	c.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, c); err != nil {
		return nil, err
	}
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionConnectorUpdated,
		ActorID: requestcontext.UserID(ctx),
		Subject: c.ID,
	})
	return &c, nil
}

// Delete removes a connector and forgets its breaker.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.breakers, id)
	s.mu.Unlock()

	_ = s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionConnectorDeleted,
		ActorID: requestcontext.UserID(ctx),
		Subject: id,
	})
	return nil
}

// RotateSecret replaces the connector's shared secret. The old secret stops
// working immediately; the new plaintext is returned exactly once.
func (s *Service) RotateSecret(ctx context.Context, id string) (*CreateResult, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	secret, err := secrets.Generate()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to generate secret")
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to hash secret")
	}

	c.SecretHash = hash
	c.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, c); err != nil {
		return nil, err
	}

	_ = s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionConnectorSecretRotated,
		ActorID: requestcontext.UserID(ctx),
		Subject: c.ID,
	})
	return &CreateResult{Connector: c, Secret: secret}, nil
}

// VerifySecret checks a presented secret against the stored hash.
func (s *Service) VerifySecret(ctx context.Context, id, secret string) error {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return secrets.Verify(secret, c.SecretHash)
}

// breaker returns the connector's circuit breaker, creating it on first use.
func (s *Service) breaker(id string) *circuit.Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.breakers[id]
	if !ok {
		b = circuit.New("connector:"+id,
			circuit.WithFailureThreshold(3),
			circuit.WithSuccessThreshold(2),
		)
		s.breakers[id] = b
	}
	return b
}
