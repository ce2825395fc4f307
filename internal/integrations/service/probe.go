package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"rbi-platform/internal/integrations/models"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/audit"
	"rbi-platform/pkg/requestcontext"
)

// degradedLatency marks a 2xx probe response slower than this as degraded.
const degradedLatency = 2 * time.Second

// Probe checks a connector's health endpoint. Transient failures are retried;
// repeated failures trip the connector's breaker, and while the breaker is
// open the probe short-circuits with 503 without touching the network.
func (s *Service) Probe(ctx context.Context, id string) (*models.ProbeResult, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.Enabled {
		return nil, apperrors.New(apperrors.CodeBadRequest, "connector is disabled")
	}

	now := requestcontext.Now(ctx)
	breaker := s.breaker(c.ID)

	if breaker.IsOpen() {
		if s.metrics != nil {
			s.metrics.ConnectorProbes.WithLabelValues("short_circuited").Inc()
		}
		s.recordHealth(ctx, c, models.HealthDown, now)
		return nil, apperrors.New(apperrors.CodeUnavailable, "connector circuit is open, probe skipped")
	}

	var latency time.Duration
	err = retry.Do(
		func() error {
			var probeErr error
			latency, probeErr = s.prober.Probe(ctx, c.BaseURL)
			return probeErr
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)

	result := &models.ProbeResult{ConnectorID: c.ID, CheckedAt: now, LatencyMS: latency.Milliseconds()}

	if err != nil {
		result.Health = models.HealthDown
		result.Detail = err.Error()
		if s.metrics != nil {
			s.metrics.ConnectorProbes.WithLabelValues("failure").Inc()
		}
		if _, change := breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "connector breaker opened",
				"connector_id", c.ID,
				"connector_name", c.Name,
			)
			_ = s.auditor.Emit(ctx, audit.Event{
				Action:  audit.ActionBreakerOpened,
				Subject: c.ID,
				Reason:  err.Error(),
			})
			_ = s.auditor.Emit(ctx, audit.Event{
				Action:  audit.ActionConnectorDown,
				Subject: c.ID,
				Reason:  err.Error(),
			})
			if s.notifier != nil {
				s.notifier.ConnectorDown(ctx, c, err.Error())
			}
		}
		s.recordHealth(ctx, c, models.HealthDown, now)
		return result, nil
	}

	result.Health = models.HealthUp
	if latency >= degradedLatency {
		// A slow 2xx still counts as a breaker success; the connector is
		// reachable, just struggling.
		result.Health = models.HealthDegraded
		result.Detail = "health endpoint responded slowly"
	}
	if s.metrics != nil {
		s.metrics.ConnectorProbes.WithLabelValues("success").Inc()
	}
	if _, change := breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "connector breaker closed", "connector_id", c.ID)
		_ = s.auditor.Emit(ctx, audit.Event{
			Action:  audit.ActionBreakerClosed,
			Subject: c.ID,
		})
	}
	s.recordHealth(ctx, c, result.Health, now)
	return result, nil
}

// recordHealth persists the observed health on the connector record. A stale
// write here is harmless; the next probe overwrites it.
func (s *Service) recordHealth(ctx context.Context, c models.Connector, health models.Health, now time.Time) {
	c.Health = health
	c.LastProbeAt = &now
	c.UpdatedAt = now
	if err := s.store.Update(ctx, c); err != nil {
		s.logger.WarnContext(ctx, "failed to record connector health", "connector_id", c.ID, "error", err)
	}
}

// HTTPProber probes connectors over HTTP with a bounded per-attempt timeout.
type HTTPProber struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPProber creates a prober with its own client so connector probes do
// not share the default transport's limits with API traffic.
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProber{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Probe issues GET <baseURL>/health and treats any 2xx as up.
func (p *HTTPProber) Probe(ctx context.Context, baseURL string) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	latency := time.Since(start)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return latency, fmt.Errorf("health endpoint returned %d", resp.StatusCode)
	}
	return latency, nil
}
