package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"rbi-platform/internal/platform/metrics"
	"rbi-platform/pkg/platform/audit"
	"rbi-platform/pkg/requestcontext"
)

// Checker is what the middleware needs from the limiter.
type Checker interface {
	CheckIP(ctx context.Context, ip string, class EndpointClass) (*Result, error)
}

// Auditor emits security events for rejected requests.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Middleware wraps routes with rate limiting.
type Middleware struct {
	limiter  Checker
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  Auditor
	disabled bool
}

// Option configures the middleware.
type Option func(*Middleware)

// WithDisabled turns rate limiting off entirely (testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) { m.disabled = disabled }
}

// WithMetrics wires the shared metrics.
func WithMetrics(met *metrics.Metrics) Option {
	return func(m *Middleware) { m.metrics = met }
}

// WithAuditor wires audit emission for rejections.
func WithAuditor(a Auditor) Option {
	return func(m *Middleware) { m.auditor = a }
}

// New creates rate limiting middleware.
func New(limiter Checker, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{limiter: limiter, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit enforces the per-IP limit for the given class. Limiter errors fail
// open: a broken limiter must not reject traffic.
func (m *Middleware) Limit(class EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)

			result, err := m.limiter.CheckIP(ctx, ip, class)
			if err != nil {
				m.logger.Error("rate limit check failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			setHeaders(w, result)

			if !result.Allowed {
				if m.metrics != nil {
					m.metrics.RateLimitedTotal.Inc()
				}
				if m.auditor != nil {
					_ = m.auditor.Emit(ctx, audit.Event{
						Action:  audit.ActionRateLimitExceeded,
						Subject: ip,
						Reason:  string(class),
					})
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(result)))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"success":false,"error":"rate_limited","message":"Too many requests"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setHeaders(w http.ResponseWriter, result *Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func retryAfterSeconds(result *Result) int {
	secs := int(time.Until(result.ResetAt).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}
