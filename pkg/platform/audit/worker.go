package audit

import (
	"context"
	"log/slog"
	"time"
)

// Sink receives audit events after local persistence, e.g. a Kafka topic.
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// Worker consumes buffered audit events and persists them, forwarding to the
// sink when one is configured. Store failures are logged and counted, never
// fatal: a broken audit store must not take the worker down with it.
type Worker struct {
	store   Store
	sink    Sink
	inbox   <-chan Event
	logger  *slog.Logger
	metrics *Metrics
}

// NewWorker creates a worker draining inbox into store (and sink, if non-nil).
func NewWorker(store Store, sink Sink, inbox <-chan Event, logger *slog.Logger, metrics *Metrics) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger, metrics: metrics}
}

// Run processes events until ctx is cancelled, then drains whatever is
// already buffered (bounded by drainTimeout) so shutdown does not lose the
// tail of the audit trail.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.handle(ctx, event)
		}
	}
}

const drainTimeout = 5 * time.Second

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case event := <-w.inbox:
			w.handle(ctx, event)
		case <-ctx.Done():
			w.logger.Warn("audit drain timed out", "remaining", len(w.inbox))
			return
		default:
			return
		}
	}
}

func (w *Worker) handle(ctx context.Context, event Event) {
	if w.metrics != nil {
		w.metrics.QueueDepth.Set(float64(len(w.inbox)))
	}
	if err := w.store.Append(ctx, event); err != nil {
		if w.metrics != nil {
			w.metrics.SinkFailures.Inc()
		}
		w.logger.Error("audit store append failed",
			"error", err,
			"action", event.Action,
		)
	}
	if w.sink != nil {
		if err := w.sink.Publish(ctx, event); err != nil {
			if w.metrics != nil {
				w.metrics.SinkFailures.Inc()
			}
			w.logger.Error("audit sink publish failed",
				"error", err,
				"action", event.Action,
			)
		}
	}
}
