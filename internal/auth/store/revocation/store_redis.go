// Package revocation tracks revoked sessions so access tokens die with their
// session instead of living out their TTL. The Redis store is authoritative
// in deployments; the memory store backs dev and tests.
package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked_session:"

// RedisStore persists revocation marks with a TTL matching the access token
// lifetime: once every token for the session has expired, the mark is
// useless and Redis drops it.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed revocation store. ttl should be at
// least the access token lifetime.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Revoke marks a session revoked.
func (s *RedisStore) Revoke(ctx context.Context, sessionID string) error {
	if err := s.client.Set(ctx, keyPrefix+sessionID, "1", s.ttl).Err(); err != nil {
		return fmt.Errorf("revoke session %s: %w", sessionID, err)
	}
	return nil
}

// IsRevoked reports whether a session has been revoked.
func (s *RedisStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("check session %s: %w", sessionID, err)
	}
	return n > 0, nil
}
