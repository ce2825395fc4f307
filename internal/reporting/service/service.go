// Package service aggregates the other modules' state into read-only
// reports. It owns no storage: every number comes through a narrow read
// interface onto another module's store.
package service

import (
	"context"
	"log/slog"

	compliancemodels "rbi-platform/internal/compliance/models"
	intmodels "rbi-platform/internal/integrations/models"
	regmodels "rbi-platform/internal/regulatory/models"
	riskmodels "rbi-platform/internal/risk/models"
	"rbi-platform/pkg/platform/audit"
)

// ItemReader lists compliance items.
type ItemReader interface {
	List(ctx context.Context, filter compliancemodels.ItemFilter) ([]compliancemodels.Item, error)
	CountByStatus(ctx context.Context) (map[compliancemodels.ItemStatus]int, error)
}

// CircularReader lists regulatory circulars.
type CircularReader interface {
	List(ctx context.Context, filter regmodels.Filter) ([]regmodels.Circular, error)
}

// ConnectorReader lists connectors.
type ConnectorReader interface {
	List(ctx context.Context, kind intmodels.Kind) ([]intmodels.Connector, error)
}

// RiskReader tallies assessments.
type RiskReader interface {
	CountByLevel(ctx context.Context) (map[riskmodels.Level]int, error)
}

// AuditReader lists audit events.
type AuditReader interface {
	List(ctx context.Context, filter audit.Filter) ([]audit.Event, error)
}

// Service computes reports on demand.
type Service struct {
	items      ItemReader
	circulars  CircularReader
	connectors ConnectorReader
	risk       RiskReader
	audits     AuditReader
	logger     *slog.Logger
}

// New creates the reporting service.
func New(items ItemReader, circulars CircularReader, connectors ConnectorReader, risk RiskReader, audits AuditReader, logger *slog.Logger) *Service {
	return &Service{
		items:      items,
		circulars:  circulars,
		connectors: connectors,
		risk:       risk,
		audits:     audits,
		logger:     logger,
	}
}

// Dashboard is the aggregate snapshot behind the landing page.
type Dashboard struct {
	Items struct {
		ByStatus       map[compliancemodels.ItemStatus]int `json:"by_status"`
		OpenBySeverity map[compliancemodels.Severity]int   `json:"open_by_severity"`
	} `json:"items"`
	Circulars  map[regmodels.Status]int `json:"circulars"`
	Connectors map[intmodels.Health]int `json:"connectors"`
	Risk       map[riskmodels.Level]int `json:"risk"`
	AuditTail  []audit.Event            `json:"audit_tail"`
}

// auditTailLimit bounds the dashboard's recent-events panel.
const auditTailLimit = 20

// Dashboard assembles the aggregate snapshot.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard

	byStatus, err := s.items.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	d.Items.ByStatus = byStatus

	open, err := s.items.List(ctx, compliancemodels.ItemFilter{Status: compliancemodels.ItemStatusOpen})
	if err != nil {
		return nil, err
	}
	d.Items.OpenBySeverity = make(map[compliancemodels.Severity]int)
	for _, item := range open {
		d.Items.OpenBySeverity[item.Severity]++
	}

	circulars, err := s.circulars.List(ctx, regmodels.Filter{})
	if err != nil {
		return nil, err
	}
	d.Circulars = make(map[regmodels.Status]int)
	for _, c := range circulars {
		d.Circulars[c.Status]++
	}

	connectors, err := s.connectors.List(ctx, "")
	if err != nil {
		return nil, err
	}
	d.Connectors = make(map[intmodels.Health]int)
	for _, c := range connectors {
		d.Connectors[c.Health]++
	}

	risk, err := s.risk.CountByLevel(ctx)
	if err != nil {
		return nil, err
	}
	d.Risk = risk

	tail, err := s.audits.List(ctx, audit.Filter{Limit: auditTailLimit})
	if err != nil {
		return nil, err
	}
	d.AuditTail = tail

	return &d, nil
}

// AuditEvents lists audit events matching the filter.
func (s *Service) AuditEvents(ctx context.Context, filter audit.Filter) ([]audit.Event, error) {
	return s.audits.List(ctx, filter)
}
