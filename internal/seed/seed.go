// Package seed loads demo data at startup when SEED_DEMO_DATA is set.
// Everything goes through the regular services, so seeded records carry the
// same audit trail and validation as API traffic.
package seed

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	authmodels "rbi-platform/internal/auth/models"
	authservice "rbi-platform/internal/auth/service"
	intmodels "rbi-platform/internal/integrations/models"
	intservice "rbi-platform/internal/integrations/service"
	regmodels "rbi-platform/internal/regulatory/models"
	regservice "rbi-platform/internal/regulatory/service"
	riskmodels "rbi-platform/internal/risk/models"
	riskservice "rbi-platform/internal/risk/service"
	"rbi-platform/pkg/requestcontext"
)

// Services are the domain services the seeder writes through.
type Services struct {
	Auth         *authservice.Service
	Integrations *intservice.Service
	Regulatory   *regservice.Service
	Risk         *riskservice.Service
}

// Run creates demo users, connectors, circulars, and one risk assessment.
// Errors are logged and skipped so a partial seed never blocks startup;
// rerunning against existing data just logs the conflicts.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) {
	ctx = requestcontext.WithRequestID(ctx, "seed")
	ctx = requestcontext.WithClientIP(ctx, "127.0.0.1")

	users := []authmodels.RegisterRequest{
		{Email: "admin@rbi-platform.local", FullName: "Demo Admin", Password: "admin-demo-pass-1", Role: authmodels.RoleAdmin},
		{Email: "officer@rbi-platform.local", FullName: "Demo Compliance Officer", Password: "officer-demo-pass-1", Role: authmodels.RoleComplianceOfficer},
		{Email: "analyst@rbi-platform.local", FullName: "Demo Analyst", Password: "analyst-demo-pass-1", Role: authmodels.RoleAnalyst},
	}
	var adminID string
	for i := range users {
		u, err := svcs.Auth.Register(ctx, &users[i])
		if err != nil {
			logger.WarnContext(ctx, "seed: skipping user", "email", users[i].Email, "error", err)
			continue
		}
		if u.Role == authmodels.RoleAdmin {
			adminID = u.ID
		}
		logger.InfoContext(ctx, "seed: user created", "email", u.Email, "role", string(u.Role))
	}

	// Later writes run as the demo admin so audit actor fields are populated.
	actorCtx := requestcontext.WithRole(requestcontext.WithUserID(ctx, adminID), string(authmodels.RoleAdmin))

	connectors := []intmodels.CreateRequest{
		{Name: "core-banking-primary", Kind: intmodels.KindCoreBanking, BaseURL: "https://cbs.internal.example.com", Description: "Primary core banking system"},
		{Name: "aml-screening", Kind: intmodels.KindAMLScreening, BaseURL: "https://aml.internal.example.com", Description: "Sanctions and PEP screening"},
	}
	for i := range connectors {
		if _, err := svcs.Integrations.Create(actorCtx, &connectors[i]); err != nil {
			logger.WarnContext(ctx, "seed: skipping connector", "name", connectors[i].Name, "error", err)
		}
	}

	published := time.Date(2025, time.June, 12, 0, 0, 0, 0, time.UTC)
	circulars := []regmodels.CreateRequest{
		{
			Reference:   "RBI/2025-26/41",
			Title:       "Master Direction on KYC amendments",
			Regulator:   "RBI",
			Summary:     "Periodic KYC update timelines revised for low-risk customers.",
			PublishedAt: published,
			Tags:        []string{"kyc", "aml"},
		},
		{
			Reference:   "RBI/2025-26/57",
			Title:       "IT outsourcing risk management norms",
			Regulator:   "RBI",
			Summary:     "Board-approved policy required for material IT outsourcing.",
			PublishedAt: published.AddDate(0, 1, 0),
			Tags:        []string{"it", "outsourcing"},
		},
	}
	for i := range circulars {
		c, err := svcs.Regulatory.Create(actorCtx, &circulars[i])
		if err != nil {
			logger.WarnContext(ctx, "seed: skipping circular", "reference", circulars[i].Reference, "error", err)
			continue
		}
		// Acknowledging the first circular opens a compliance item for it.
		if i == 0 {
			if _, err := svcs.Regulatory.Acknowledge(actorCtx, c.ID, &regmodels.AcknowledgeRequest{Owner: "officer@rbi-platform.local"}); err != nil {
				logger.WarnContext(ctx, "seed: acknowledge failed", "reference", c.Reference, "error", err)
			}
		}
	}

	if _, err := svcs.Risk.Assess(actorCtx, &riskmodels.CreateRequest{
		Entity: "demo-nbfc",
		CategoryScores: map[string]decimal.Decimal{
			"credit":      decimal.RequireFromString("0.45"),
			"operational": decimal.RequireFromString("0.30"),
			"liquidity":   decimal.RequireFromString("0.20"),
		},
	}); err != nil {
		logger.WarnContext(ctx, "seed: assessment failed", "error", err)
	}

	logger.InfoContext(ctx, "seed: demo data loaded")
}
