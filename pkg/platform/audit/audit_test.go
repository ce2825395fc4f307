package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbi-platform/pkg/requestcontext"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryCompliance, CategoryOf(ActionUserCreated))
	assert.Equal(t, CategorySecurity, CategoryOf(ActionRefreshReuse))
	assert.Equal(t, CategoryOperations, CategoryOf(ActionTokenIssued))
	assert.Equal(t, CategoryOperations, CategoryOf(ActionRateLimitExceeded), "rate-limit noise must stay sampleable")
	assert.Equal(t, CategorySecurity, CategoryOf(ActionAuthLockout))
	assert.Equal(t, CategoryOperations, CategoryOf("something_new"), "unknown actions default to operations")
}

func TestInMemoryStore_ListFiltersNewestFirst(t *testing.T) {
	store := NewInMemoryStore(0)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, action := range []string{ActionLoginFailed, ActionTokenIssued, ActionLoginFailed} {
		require.NoError(t, store.Append(ctx, Event{
			Category:  CategoryOf(action),
			Action:    action,
			UserID:    "u1",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	events, err := store.List(ctx, Filter{Action: ActionLoginFailed})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Timestamp.After(events[1].Timestamp), "newest first")

	events, err = store.List(ctx, Filter{Category: CategoryOperations})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionTokenIssued, events[0].Action)
}

func TestInMemoryStore_CapEvictsOldest(t *testing.T) {
	store := NewInMemoryStore(2)
	ctx := context.Background()

	for _, subject := range []string{"a", "b", "c"} {
		require.NoError(t, store.Append(ctx, Event{Action: ActionTokenIssued, Subject: subject}))
	}

	events, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "c", events[0].Subject)
	assert.Equal(t, "b", events[1].Subject)
}

type failingStore struct{}

func (failingStore) Append(context.Context, Event) error { return errors.New("disk full") }
func (failingStore) List(context.Context, Filter) ([]Event, error) {
	return nil, errors.New("disk full")
}

func TestPublisher_ComplianceFailsClosed(t *testing.T) {
	p := NewPublisher(failingStore{}, discardLogger())

	err := p.Emit(context.Background(), Event{Action: ActionItemCreated})
	require.Error(t, err, "compliance events must surface store failures")
}

func TestPublisher_SecurityIsBufferedNotBlocking(t *testing.T) {
	p := NewPublisher(failingStore{}, discardLogger())

	// Even with a broken store, security emission succeeds: persistence is
	// the worker's problem.
	err := p.Emit(context.Background(), Event{Action: ActionLoginFailed})
	require.NoError(t, err)
	assert.Equal(t, 1, len(p.Inbox()))
}

func TestPublisher_FillsContextFields(t *testing.T) {
	store := NewInMemoryStore(0)
	p := NewPublisher(store, discardLogger())

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-9")
	ctx = requestcontext.WithClientIP(ctx, "203.0.113.9")

	require.NoError(t, p.Emit(ctx, Event{Action: ActionItemCreated, UserID: "u1"}))

	events, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, now, events[0].Timestamp)
	assert.Equal(t, "req-9", events[0].RequestID)
	assert.Equal(t, "203.0.113.9", events[0].ClientIP)
	assert.Equal(t, CategoryCompliance, events[0].Category)
}

func TestPublisher_BufferFullDropsOldest(t *testing.T) {
	p := NewPublisher(NewInMemoryStore(0), discardLogger(), WithBufferSize(2))

	require.NoError(t, p.Emit(context.Background(), Event{Action: ActionLoginFailed, Subject: "first"}))
	require.NoError(t, p.Emit(context.Background(), Event{Action: ActionLoginFailed, Subject: "second"}))
	require.NoError(t, p.Emit(context.Background(), Event{Action: ActionLoginFailed, Subject: "third"}))

	first := <-p.Inbox()
	second := <-p.Inbox()
	assert.Equal(t, "second", first.Subject, "oldest should have been dropped")
	assert.Equal(t, "third", second.Subject)
}

func TestPublisher_OpsSampling(t *testing.T) {
	sampler := NewSampler(0) // sample nothing
	p := NewPublisher(NewInMemoryStore(0), discardLogger(), WithSampler(sampler))

	require.NoError(t, p.Emit(context.Background(), Event{Action: ActionTokenIssued}))
	assert.Equal(t, 0, len(p.Inbox()), "ops events sampled out should not enqueue")

	// Per-action rates apply too: a zero rate must silence the action.
	require.NoError(t, p.Emit(context.Background(), Event{Action: ActionRateLimitExceeded}))
	assert.Equal(t, 0, len(p.Inbox()), "rate-limit events at rate zero should not enqueue")

	// Security events are never sampled.
	require.NoError(t, p.Emit(context.Background(), Event{Action: ActionLoginFailed}))
	assert.Equal(t, 1, len(p.Inbox()))
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) Close() {}

func (s *recordingSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestWorker_PersistsAndForwards(t *testing.T) {
	store := NewInMemoryStore(0)
	sink := &recordingSink{}
	p := NewPublisher(store, discardLogger())
	w := NewWorker(store, sink, p.Inbox(), discardLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, p.Emit(ctx, Event{Action: ActionLoginFailed, Subject: "u1"}))
	require.NoError(t, p.Emit(ctx, Event{Action: ActionTokenIssued, Subject: "u1"}))

	require.Eventually(t, func() bool {
		events, err := store.List(context.Background(), Filter{})
		return err == nil && len(events) == 2 && sink.len() == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorker_DrainsBufferedEventsOnShutdown(t *testing.T) {
	store := NewInMemoryStore(0)
	p := NewPublisher(store, discardLogger())
	w := NewWorker(store, nil, p.Inbox(), discardLogger(), nil)

	// Queue events before the worker ever runs.
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Emit(context.Background(), Event{Action: ActionLoginFailed}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = w.Run(ctx)

	events, err := store.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, events, 5, "shutdown must not lose buffered events")
}

func TestSampler_Rates(t *testing.T) {
	always := NewSampler(1)
	for i := 0; i < 100; i++ {
		assert.True(t, always.ShouldSample(ActionTokenIssued))
	}

	never := NewSampler(0)
	for i := 0; i < 100; i++ {
		assert.False(t, never.ShouldSample(ActionTokenIssued))
	}

	mixed := NewSampler(0)
	mixed.SetRate(ActionTokenIssued, 1)
	assert.True(t, mixed.ShouldSample(ActionTokenIssued))
	assert.False(t, mixed.ShouldSample(ActionNotificationSent))
}
