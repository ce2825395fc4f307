package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbi-platform/internal/platform/config"
	"rbi-platform/pkg/requestcontext"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.RateLimit {
	return config.RateLimit{
		PublicLimit:     5,
		PublicWindow:    time.Minute,
		AuthLimit:       2,
		AuthWindow:      time.Minute,
		LockoutAttempts: 3,
		LockoutWindow:   15 * time.Minute,
	}
}

func TestWindowStore_AllowUpToLimit(t *testing.T) {
	store := NewInMemoryWindowStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := store.Allow(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should pass", i+1)
		assert.Equal(t, 3-(i+1), res.Remaining)
	}

	res, err := store.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.False(t, res.ResetAt.IsZero())
}

func TestWindowStore_WindowExpiry(t *testing.T) {
	store := NewInMemoryWindowStore()
	ctx := context.Background()

	res, err := store.Allow(ctx, "k", 1, 20*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = store.Allow(ctx, "k", 1, 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	time.Sleep(30 * time.Millisecond)

	res, err = store.Allow(ctx, "k", 1, 20*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "window should have slid past the first request")
}

func TestWindowStore_SweepEvictsDrainedWindows(t *testing.T) {
	store := NewInMemoryWindowStore()
	ctx := context.Background()

	// Distinct keys, all expiring immediately: the periodic sweep must drop
	// them instead of letting IP churn grow the map forever.
	for i := 0; i < sweepEvery-1; i++ {
		_, err := store.Allow(ctx, "ip-"+strconv.Itoa(i), 10, time.Millisecond)
		require.NoError(t, err)
	}
	time.Sleep(5 * time.Millisecond)

	_, err := store.Allow(ctx, "trigger", 10, time.Minute)
	require.NoError(t, err)

	store.mu.Lock()
	size := len(store.windows)
	store.mu.Unlock()
	assert.Equal(t, 1, size, "only the live window should survive the sweep")
}

func TestWindowStore_CountDropsDrainedKey(t *testing.T) {
	store := NewInMemoryWindowStore()
	ctx := context.Background()

	_, err := store.Record(ctx, "k", time.Millisecond)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	n, err := store.Count(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	store.mu.Lock()
	_, ok := store.windows["k"]
	store.mu.Unlock()
	assert.False(t, ok, "drained window should be evicted on count")
}

func TestWindowStore_KeysAreIndependent(t *testing.T) {
	store := NewInMemoryWindowStore()
	ctx := context.Background()

	_, err := store.Allow(ctx, "a", 1, time.Minute)
	require.NoError(t, err)

	res, err := store.Allow(ctx, "b", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLimiter_AuthClassIsStricter(t *testing.T) {
	l := NewLimiter(NewInMemoryWindowStore(), testConfig())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.CheckIP(ctx, "203.0.113.1", ClassAuth)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := l.CheckIP(ctx, "203.0.113.1", ClassAuth)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// Public class has its own budget for the same IP.
	res, err = l.CheckIP(ctx, "203.0.113.1", ClassPublic)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLimiter_Lockout(t *testing.T) {
	l := NewLimiter(NewInMemoryWindowStore(), testConfig())
	ctx := context.Background()

	res, err := l.CheckLockout(ctx, "user@example.com", "203.0.113.1")
	require.NoError(t, err)
	assert.False(t, res.Locked)

	for i := 0; i < 2; i++ {
		out, err := l.RecordFailure(ctx, "user@example.com", "203.0.113.1")
		require.NoError(t, err)
		assert.False(t, out.Locked)
	}

	out, err := l.RecordFailure(ctx, "user@example.com", "203.0.113.1")
	require.NoError(t, err)
	assert.True(t, out.Locked, "third failure should trigger lockout")

	check, err := l.CheckLockout(ctx, "user@example.com", "203.0.113.1")
	require.NoError(t, err)
	assert.True(t, check.Locked)

	// Different IP is a different lockout bucket.
	check, err = l.CheckLockout(ctx, "user@example.com", "198.51.100.9")
	require.NoError(t, err)
	assert.False(t, check.Locked)

	require.NoError(t, l.ClearFailures(ctx, "user@example.com", "203.0.113.1"))
	check, err = l.CheckLockout(ctx, "user@example.com", "203.0.113.1")
	require.NoError(t, err)
	assert.False(t, check.Locked)
}

type checkerFunc func(ctx context.Context, ip string, class EndpointClass) (*Result, error)

func (f checkerFunc) CheckIP(ctx context.Context, ip string, class EndpointClass) (*Result, error) {
	return f(ctx, ip, class)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithIP(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return req.WithContext(requestcontext.WithClientIP(req.Context(), ip))
}

func TestMiddleware_Rejects(t *testing.T) {
	denied := checkerFunc(func(context.Context, string, EndpointClass) (*Result, error) {
		return &Result{Allowed: false, Limit: 5, ResetAt: time.Now().Add(time.Minute)}, nil
	})
	m := New(denied, discardLogger())

	rr := httptest.NewRecorder()
	m.Limit(ClassPublic)(okHandler()).ServeHTTP(rr, requestWithIP("203.0.113.1"))

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "5", rr.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "rate_limited")
}

func TestMiddleware_FailsOpenOnLimiterError(t *testing.T) {
	broken := checkerFunc(func(context.Context, string, EndpointClass) (*Result, error) {
		return nil, errors.New("store down")
	})
	m := New(broken, discardLogger())

	rr := httptest.NewRecorder()
	m.Limit(ClassPublic)(okHandler()).ServeHTTP(rr, requestWithIP("203.0.113.1"))

	assert.Equal(t, http.StatusOK, rr.Code, "limiter failure must not reject traffic")
}

func TestMiddleware_Disabled(t *testing.T) {
	denied := checkerFunc(func(context.Context, string, EndpointClass) (*Result, error) {
		t.Fatal("limiter should not be called when disabled")
		return nil, nil
	})
	m := New(denied, discardLogger(), WithDisabled(true))

	rr := httptest.NewRecorder()
	m.Limit(ClassPublic)(okHandler()).ServeHTTP(rr, requestWithIP("203.0.113.1"))
	assert.Equal(t, http.StatusOK, rr.Code)
}
