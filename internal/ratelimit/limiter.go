package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"rbi-platform/internal/platform/config"
)

// WindowStore is the counting backend for the limiter.
type WindowStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
	Record(ctx context.Context, key string, window time.Duration) (int, error)
	Count(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

// Limiter applies per-IP request limits and the failed-login lockout.
type Limiter struct {
	store WindowStore
	cfg   config.RateLimit
}

// NewLimiter creates a limiter over the given store.
func NewLimiter(store WindowStore, cfg config.RateLimit) *Limiter {
	return &Limiter{store: store, cfg: cfg}
}

// CheckIP enforces the per-IP limit for the endpoint class.
func (l *Limiter) CheckIP(ctx context.Context, ip string, class EndpointClass) (*Result, error) {
	limit, window := l.cfg.PublicLimit, l.cfg.PublicWindow
	if class == ClassAuth {
		limit, window = l.cfg.AuthLimit, l.cfg.AuthWindow
	}
	return l.store.Allow(ctx, "ip:"+string(class)+":"+ip, limit, window)
}

// CheckLockout reports whether the identifier+IP pair is locked out from
// authentication due to repeated failures.
func (l *Limiter) CheckLockout(ctx context.Context, identifier, ip string) (*LockoutResult, error) {
	count, err := l.store.Count(ctx, lockoutKey(identifier, ip))
	if err != nil {
		return nil, err
	}
	if count >= l.cfg.LockoutAttempts {
		return &LockoutResult{Locked: true, Attempts: count, RetryAfter: l.cfg.LockoutWindow}, nil
	}
	return &LockoutResult{Attempts: count}, nil
}

// RecordFailure counts a failed login attempt; the returned result reports
// whether this failure triggered the lockout.
func (l *Limiter) RecordFailure(ctx context.Context, identifier, ip string) (*LockoutResult, error) {
	count, err := l.store.Record(ctx, lockoutKey(identifier, ip), l.cfg.LockoutWindow)
	if err != nil {
		return nil, err
	}
	return &LockoutResult{
		Locked:     count >= l.cfg.LockoutAttempts,
		Attempts:   count,
		RetryAfter: l.cfg.LockoutWindow,
	}, nil
}

// ClearFailures resets the lockout counter after a successful login.
func (l *Limiter) ClearFailures(ctx context.Context, identifier, ip string) error {
	return l.store.Reset(ctx, lockoutKey(identifier, ip))
}

// lockoutKey hashes the identifier so raw emails never appear as store keys.
func lockoutKey(identifier, ip string) string {
	sum := sha256.Sum256([]byte(identifier + "|" + ip))
	return "lockout:" + hex.EncodeToString(sum[:8])
}
