package service

import (
	"github.com/shopspring/decimal"

	"rbi-platform/internal/risk/models"
)

// Level thresholds. Compared against the weighted overall score.
var (
	thresholdCritical = decimal.RequireFromString("0.75")
	thresholdHigh     = decimal.RequireFromString("0.5")
	thresholdMedium   = decimal.RequireFromString("0.25")
)

// CategoryWeights is the scoring profile: weight per category, summing to 1.
type CategoryWeights map[string]decimal.Decimal

// DefaultWeights is the regulatory scoring profile used when no custom
// profile is configured.
func DefaultWeights() CategoryWeights {
	return CategoryWeights{
		"credit":      decimal.RequireFromString("0.3"),
		"operational": decimal.RequireFromString("0.25"),
		"market":      decimal.RequireFromString("0.2"),
		"liquidity":   decimal.RequireFromString("0.15"),
		"reputation":  decimal.RequireFromString("0.1"),
	}
}

// Score computes the weighted overall score for the given category scores.
// Categories without a configured weight share the weight left over after the
// configured categories, so a score over unknown categories still lands in
// [0, 1]. When every category is unweighted this degrades to a plain average.
func (w CategoryWeights) Score(scores map[string]decimal.Decimal) decimal.Decimal {
	if len(scores) == 0 {
		return decimal.Zero
	}

	weighted := decimal.Zero
	usedWeight := decimal.Zero
	var unknown []string
	for category, score := range scores {
		weight, ok := w[category]
		if !ok {
			unknown = append(unknown, category)
			continue
		}
		weighted = weighted.Add(score.Mul(weight))
		usedWeight = usedWeight.Add(weight)
	}

	if len(unknown) > 0 {
		remaining := decimal.NewFromInt(1).Sub(usedWeight)
		if remaining.IsPositive() {
			share := remaining.Div(decimal.NewFromInt(int64(len(unknown))))
			for _, category := range unknown {
				weighted = weighted.Add(scores[category].Mul(share))
			}
			usedWeight = decimal.NewFromInt(1)
		}
	}

	if usedWeight.IsZero() {
		return decimal.Zero
	}
	// Normalize so a partial category set still scores against weight 1.
	return weighted.Div(usedWeight).Round(4)
}

// LevelFor buckets an overall score.
func LevelFor(score decimal.Decimal) models.Level {
	switch {
	case score.GreaterThanOrEqual(thresholdCritical):
		return models.LevelCritical
	case score.GreaterThanOrEqual(thresholdHigh):
		return models.LevelHigh
	case score.GreaterThanOrEqual(thresholdMedium):
		return models.LevelMedium
	default:
		return models.LevelLow
	}
}
