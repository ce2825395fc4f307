// Package httptransport assembles the top-level router: middleware chain,
// health and metrics endpoints, and the /api/v1 domain mounts.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "rbi-platform/internal/auth/handler"
	compliancehandler "rbi-platform/internal/compliance/handler"
	documenthandler "rbi-platform/internal/documents/handler"
	integrationhandler "rbi-platform/internal/integrations/handler"
	notificationhandler "rbi-platform/internal/notifications/handler"
	"rbi-platform/internal/ratelimit"
	regulatoryhandler "rbi-platform/internal/regulatory/handler"
	reportinghandler "rbi-platform/internal/reporting/handler"
	riskhandler "rbi-platform/internal/risk/handler"
	"rbi-platform/pkg/platform/httputil"
	"rbi-platform/pkg/platform/middleware"
)

// Handlers carries the per-domain HTTP handlers mounted by NewRouter.
type Handlers struct {
	Auth          *authhandler.Handler
	Integrations  *integrationhandler.Handler
	Compliance    *compliancehandler.Handler
	Risk          *riskhandler.Handler
	Regulatory    *regulatoryhandler.Handler
	Documents     *documenthandler.Handler
	Notifications *notificationhandler.Handler
	Reporting     *reportinghandler.Handler
}

// Options carries the cross-cutting pieces of the router.
type Options struct {
	Logger         *slog.Logger
	TokenValidator middleware.TokenValidator
	Sessions       middleware.SessionChecker
	RateLimiter    *ratelimit.Middleware
	Latency        middleware.LatencyObserver
	RequestTimeout time.Duration
}

// NewRouter builds the full HTTP surface.
func NewRouter(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.Logger(opts.Logger))
	if opts.Latency != nil {
		r.Use(middleware.Latency(opts.Latency))
	}
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteMessage(w, http.StatusOK, "ok")
	})
	r.Handle("/metrics", promhttp.Handler())

	requireAuth := middleware.RequireAuth(opts.TokenValidator, opts.Sessions, opts.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			r.Group(func(r chi.Router) {
				r.Use(opts.RateLimiter.Limit(ratelimit.ClassAuth))
				h.Auth.RegisterPublic(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				h.Auth.RegisterProtected(r)
			})
		})

		// Everything below requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(opts.RateLimiter.Limit(ratelimit.ClassPublic))
			r.Use(requireAuth)

			r.Group(func(r chi.Router) {
				r.Use(middleware.ContentTypeJSON)
				r.Route("/integrations", h.Integrations.Register)
				r.Route("/compliance", h.Compliance.Register)
				r.Route("/risk", h.Risk.Register)
				r.Route("/regulatory", h.Regulatory.Register)
				r.Route("/notifications", h.Notifications.Register)
				r.Route("/reports", h.Reporting.Register)
			})

			// Document uploads are multipart, so the JSON gate stays off.
			r.Route("/documents", h.Documents.Register)
		})
	})

	return r
}
