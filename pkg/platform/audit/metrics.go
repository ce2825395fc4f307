package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the audit pipeline.
type Metrics struct {
	Emitted      *prometheus.CounterVec
	Dropped      prometheus.Counter
	Sampled      prometheus.Counter
	SinkFailures prometheus.Counter
	QueueDepth   prometheus.Gauge
}

// NewMetrics creates and registers the audit pipeline metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Emitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rbi_platform_audit_events_total",
			Help: "Audit events emitted by category.",
		}, []string{"category"}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rbi_platform_audit_events_dropped_total",
			Help: "Audit events dropped because the buffer was full.",
		}),
		Sampled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rbi_platform_audit_events_sampled_out_total",
			Help: "Operations events discarded by the sampler.",
		}),
		SinkFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rbi_platform_audit_sink_failures_total",
			Help: "Failed writes to the audit sink.",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "rbi_platform_audit_queue_depth",
			Help: "Events waiting in the audit worker queue.",
		}),
	}
}
