package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbi-platform/internal/risk/models"
	"rbi-platform/internal/risk/service"
	"rbi-platform/internal/risk/store"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/audit"
)

type captureAuditor struct {
	events []audit.Event
}

func (c *captureAuditor) Emit(_ context.Context, event audit.Event) error {
	c.events = append(c.events, event)
	return nil
}

type captureNotifier struct {
	elevated []models.Assessment
}

func (n *captureNotifier) RiskElevated(_ context.Context, a models.Assessment) {
	n.elevated = append(n.elevated, a)
}

func newService(weights service.CategoryWeights) (*service.Service, *captureAuditor, *captureNotifier) {
	auditor := &captureAuditor{}
	notifier := &captureNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return service.New(store.New(), weights, auditor, notifier, nil, logger), auditor, notifier
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestScoring(t *testing.T) {
	weights := service.CategoryWeights{
		"credit":      dec("0.5"),
		"operational": dec("0.5"),
	}

	tests := []struct {
		name    string
		scores  map[string]decimal.Decimal
		overall string
		level   models.Level
	}{
		{
			name:    "even split",
			scores:  map[string]decimal.Decimal{"credit": dec("0.4"), "operational": dec("0.6")},
			overall: "0.5",
			level:   models.LevelHigh,
		},
		{
			name:    "all maximal is critical",
			scores:  map[string]decimal.Decimal{"credit": dec("1"), "operational": dec("1")},
			overall: "1",
			level:   models.LevelCritical,
		},
		{
			name:    "all zero is low",
			scores:  map[string]decimal.Decimal{"credit": dec("0"), "operational": dec("0")},
			overall: "0",
			level:   models.LevelLow,
		},
		{
			name:    "single category normalizes against its weight",
			scores:  map[string]decimal.Decimal{"credit": dec("0.3")},
			overall: "0.3",
			level:   models.LevelMedium,
		},
		{
			name:    "exactly at the critical threshold",
			scores:  map[string]decimal.Decimal{"credit": dec("0.75"), "operational": dec("0.75")},
			overall: "0.75",
			level:   models.LevelCritical,
		},
		{
			name:    "just below medium is low",
			scores:  map[string]decimal.Decimal{"credit": dec("0.2"), "operational": dec("0.29")},
			overall: "0.245",
			level:   models.LevelLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overall := weights.Score(tt.scores)
			assert.True(t, dec(tt.overall).Equal(overall),
				"expected %s, got %s", tt.overall, overall)
			assert.Equal(t, tt.level, service.LevelFor(overall))
		})
	}
}

func TestScoringUnknownCategories(t *testing.T) {
	weights := service.CategoryWeights{"credit": dec("0.6")}
	// The unknown category takes the leftover 0.4 weight.
	overall := weights.Score(map[string]decimal.Decimal{
		"credit": dec("0.5"),
		"cyber":  dec("1"),
	})
	assert.True(t, dec("0.7").Equal(overall), "got %s", overall)
}

func TestAssess(t *testing.T) {
	t.Run("overall score is never taken from input", func(t *testing.T) {
		svc, _, _ := newService(nil)
		a, err := svc.Assess(context.Background(), &models.CreateRequest{
			Entity: "branch-042",
			CategoryScores: map[string]decimal.Decimal{
				"credit":      dec("0.2"),
				"operational": dec("0.2"),
				"market":      dec("0.2"),
				"liquidity":   dec("0.2"),
				"reputation":  dec("0.2"),
			},
		})
		require.NoError(t, err)
		assert.True(t, dec("0.2").Equal(a.OverallScore), "got %s", a.OverallScore)
		assert.Equal(t, models.LevelLow, a.Level)
	})

	t.Run("high assessment raises an alert and audit event", func(t *testing.T) {
		svc, auditor, notifier := newService(nil)
		a, err := svc.Assess(context.Background(), &models.CreateRequest{
			Entity: "branch-042",
			CategoryScores: map[string]decimal.Decimal{
				"credit":      dec("0.9"),
				"operational": dec("0.9"),
				"market":      dec("0.9"),
				"liquidity":   dec("0.9"),
				"reputation":  dec("0.9"),
			},
		})
		require.NoError(t, err)
		assert.Equal(t, models.LevelCritical, a.Level)
		require.Len(t, notifier.elevated, 1)
		require.Len(t, auditor.events, 1)
		assert.Equal(t, audit.ActionAssessmentScored, auditor.events[0].Action)
		assert.Equal(t, "critical", auditor.events[0].Decision)
	})

	t.Run("low assessment does not alert", func(t *testing.T) {
		svc, _, notifier := newService(nil)
		_, err := svc.Assess(context.Background(), &models.CreateRequest{
			Entity:         "branch-001",
			CategoryScores: map[string]decimal.Decimal{"credit": dec("0.1")},
		})
		require.NoError(t, err)
		assert.Empty(t, notifier.elevated)
	})

	t.Run("out of range score rejected", func(t *testing.T) {
		svc, _, _ := newService(nil)
		_, err := svc.Assess(context.Background(), &models.CreateRequest{
			Entity:         "branch-001",
			CategoryScores: map[string]decimal.Decimal{"credit": dec("1.5")},
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeBadRequest, apperrors.CodeOf(err))
	})
}

func TestSummary(t *testing.T) {
	svc, _, _ := newService(nil)
	for _, score := range []string{"0.1", "0.3", "0.9"} {
		_, err := svc.Assess(context.Background(), &models.CreateRequest{
			Entity:         "branch-042",
			CategoryScores: map[string]decimal.Decimal{"credit": dec(score)},
		})
		require.NoError(t, err)
	}

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Levels[models.LevelLow])
	assert.Equal(t, 1, summary.Levels[models.LevelMedium])
	assert.Equal(t, 1, summary.Levels[models.LevelCritical])
}
