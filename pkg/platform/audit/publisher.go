package audit

import (
	"context"
	"log/slog"

	"rbi-platform/pkg/requestcontext"
)

const defaultBufferSize = 4096

// Publisher is the single entry point for emitting audit events.
//
// Compliance events are appended to the store synchronously and their error
// is returned: a regulatory action that cannot be recorded must not succeed.
// Security and operations events are buffered and handled by the Worker;
// when the buffer is full the oldest event is dropped so recent activity is
// preserved.
type Publisher struct {
	store   Store
	inbox   chan Event
	sampler *Sampler
	metrics *Metrics
	logger  *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithSampler enables sampling for operations events.
func WithSampler(s *Sampler) Option {
	return func(p *Publisher) { p.sampler = s }
}

// WithMetrics wires pipeline instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// WithBufferSize overrides the async event buffer capacity.
func WithBufferSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.inbox = make(chan Event, n)
		}
	}
}

// NewPublisher creates a publisher writing compliance events to store and
// queueing the rest for the Worker.
func NewPublisher(store Store, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		inbox:  make(chan Event, defaultBufferSize),
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Inbox exposes the queued events for the Worker.
func (p *Publisher) Inbox() <-chan Event { return p.inbox }

// Emit records an audit event. Missing fields are filled from the request
// context: timestamp, request ID and client IP.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Category == "" {
		event.Category = CategoryOf(event.Action)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}

	if p.metrics != nil {
		p.metrics.Emitted.WithLabelValues(string(event.Category)).Inc()
	}

	switch event.Category {
	case CategoryCompliance:
		// Fail closed: the caller's operation must not succeed unrecorded.
		return p.store.Append(ctx, event)
	case CategoryOperations:
		if p.sampler != nil && !p.sampler.ShouldSample(event.Action) {
			if p.metrics != nil {
				p.metrics.Sampled.Inc()
			}
			return nil
		}
	}

	p.enqueue(event)
	return nil
}

// enqueue adds an event to the buffer, dropping the oldest queued event when
// full so the newest activity wins.
func (p *Publisher) enqueue(event Event) {
	for {
		select {
		case p.inbox <- event:
			if p.metrics != nil {
				p.metrics.QueueDepth.Set(float64(len(p.inbox)))
			}
			return
		default:
		}
		select {
		case dropped := <-p.inbox:
			if p.metrics != nil {
				p.metrics.Dropped.Inc()
			}
			p.logger.Warn("audit buffer full, dropped oldest event",
				"action", dropped.Action,
				"category", dropped.Category,
			)
		default:
			// Worker drained the buffer between selects; retry the send.
		}
	}
}
