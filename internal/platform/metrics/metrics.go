// Package metrics registers the platform-wide Prometheus metrics. Domain
// packages with richer instrumentation needs (audit pipeline, rate limiter)
// register their own collectors next to their logic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the shared Prometheus metrics for the HTTP surface.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec

	LoginsTotal       *prometheus.CounterVec
	TokensIssued      prometheus.Counter
	TokensRefreshed   prometheus.Counter
	RefreshReuse      prometheus.Counter
	RateLimitedTotal  prometheus.Counter
	ConnectorProbes   *prometheus.CounterVec
	AssessmentsScored prometheus.Counter
}

// New creates and registers all shared Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rbi_platform_http_request_duration_seconds",
			Help:    "HTTP request latency by method and status class.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rbi_platform_http_requests_total",
			Help: "Total HTTP requests by method and status class.",
		}, []string{"method", "status"}),
		LoginsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rbi_platform_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rbi_platform_tokens_issued_total",
			Help: "Access tokens issued.",
		}),
		TokensRefreshed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rbi_platform_tokens_refreshed_total",
			Help: "Access tokens issued through refresh grants.",
		}),
		RefreshReuse: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rbi_platform_refresh_reuse_detected_total",
			Help: "Refresh token reuse incidents (session revoked).",
		}),
		RateLimitedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rbi_platform_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		ConnectorProbes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rbi_platform_connector_probes_total",
			Help: "Connector health probes by result.",
		}, []string{"result"}),
		AssessmentsScored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rbi_platform_risk_assessments_total",
			Help: "Risk assessments scored.",
		}),
	}
}

// ObserveRequest satisfies middleware.LatencyObserver. Status codes collapse
// to their class to bound label cardinality.
func (m *Metrics) ObserveRequest(method, _ string, status int, duration time.Duration) {
	class := strconv.Itoa(status/100) + "xx"
	m.RequestDuration.WithLabelValues(method, class).Observe(duration.Seconds())
	m.RequestsTotal.WithLabelValues(method, class).Inc()
}
