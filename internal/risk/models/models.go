// Package models defines risk assessments.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rbi-platform/pkg/apperrors"
)

// Level buckets an overall score into an actionable band.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Assessment is one scored evaluation of an entity. Scores are decimals in
// [0, 1]; OverallScore is always computed server-side.
type Assessment struct {
	ID             string                     `json:"id"`
	Entity         string                     `json:"entity"`
	CategoryScores map[string]decimal.Decimal `json:"category_scores"`
	OverallScore   decimal.Decimal            `json:"overall_score"`
	Level          Level                      `json:"level"`
	AssessedBy     string                     `json:"assessed_by,omitempty"`
	AssessedAt     time.Time                  `json:"assessed_at"`
}

// CreateRequest submits category scores for an entity. Any overall score in
// the payload is ignored.
type CreateRequest struct {
	Entity         string                     `json:"entity"`
	CategoryScores map[string]decimal.Decimal `json:"category_scores"`
}

// Normalize trims the entity name.
func (r *CreateRequest) Normalize() {
	r.Entity = strings.TrimSpace(r.Entity)
}

// Validate enforces presence and score bounds.
func (r *CreateRequest) Validate() error {
	if r.Entity == "" {
		return apperrors.New(apperrors.CodeBadRequest, "entity is required")
	}
	if len(r.CategoryScores) == 0 {
		return apperrors.New(apperrors.CodeBadRequest, "at least one category score is required")
	}
	zero := decimal.Zero
	one := decimal.NewFromInt(1)
	for category, score := range r.CategoryScores {
		if strings.TrimSpace(category) == "" {
			return apperrors.New(apperrors.CodeBadRequest, "category names must not be empty")
		}
		if score.LessThan(zero) || score.GreaterThan(one) {
			return apperrors.Newf(apperrors.CodeBadRequest, "score for %s must be between 0 and 1", category)
		}
	}
	return nil
}

// Summary counts assessments per level for the dashboard.
type Summary struct {
	Total  int           `json:"total"`
	Levels map[Level]int `json:"levels"`
}
