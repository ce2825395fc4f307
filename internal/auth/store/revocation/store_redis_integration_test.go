//go:build integration

package revocation_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"rbi-platform/internal/auth/store/revocation"
	"rbi-platform/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
}

func (s *RedisStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.redis.FlushAll(ctx)
	s.Require().NoError(err)
}

// TestRevokeAndCheck verifies the basic revoke then check flow.
func (s *RedisStoreSuite) TestRevokeAndCheck() {
	ctx := context.Background()
	store := revocation.NewRedisStore(s.redis.Client, time.Minute)
	sessionID := uuid.NewString()

	revoked, err := store.IsRevoked(ctx, sessionID)
	s.Require().NoError(err)
	s.False(revoked, "fresh session should not be revoked")

	err = store.Revoke(ctx, sessionID)
	s.Require().NoError(err)

	revoked, err = store.IsRevoked(ctx, sessionID)
	s.Require().NoError(err)
	s.True(revoked)
}

// TestRevocationMarkExpires verifies the mark disappears once every access
// token for the session would have expired anyway.
func (s *RedisStoreSuite) TestRevocationMarkExpires() {
	ctx := context.Background()
	store := revocation.NewRedisStore(s.redis.Client, 500*time.Millisecond)
	sessionID := uuid.NewString()

	err := store.Revoke(ctx, sessionID)
	s.Require().NoError(err)

	revoked, err := store.IsRevoked(ctx, sessionID)
	s.Require().NoError(err)
	s.True(revoked)

	time.Sleep(700 * time.Millisecond)

	revoked, err = store.IsRevoked(ctx, sessionID)
	s.Require().NoError(err)
	s.False(revoked, "mark should expire with the access token lifetime")
}

// TestRevokeIsIdempotent verifies a second revoke refreshes the mark without
// erroring.
func (s *RedisStoreSuite) TestRevokeIsIdempotent() {
	ctx := context.Background()
	store := revocation.NewRedisStore(s.redis.Client, time.Minute)
	sessionID := uuid.NewString()

	s.Require().NoError(store.Revoke(ctx, sessionID))
	s.Require().NoError(store.Revoke(ctx, sessionID))

	revoked, err := store.IsRevoked(ctx, sessionID)
	s.Require().NoError(err)
	s.True(revoked)
}

// TestSessionsAreIsolated verifies revoking one session leaves others alone.
func (s *RedisStoreSuite) TestSessionsAreIsolated() {
	ctx := context.Background()
	store := revocation.NewRedisStore(s.redis.Client, time.Minute)
	revokedID := uuid.NewString()
	liveID := uuid.NewString()

	s.Require().NoError(store.Revoke(ctx, revokedID))

	revoked, err := store.IsRevoked(ctx, revokedID)
	s.Require().NoError(err)
	s.True(revoked)

	live, err := store.IsRevoked(ctx, liveID)
	s.Require().NoError(err)
	s.False(live)
}

// TestConcurrentRevokeAndCheck verifies revokes and checks from many
// goroutines never error and converge on revoked.
func (s *RedisStoreSuite) TestConcurrentRevokeAndCheck() {
	ctx := context.Background()
	store := revocation.NewRedisStore(s.redis.Client, time.Minute)
	sessionID := uuid.NewString()

	const goroutines = 40
	var wg sync.WaitGroup
	var errCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if idx%2 == 0 {
				if err := store.Revoke(ctx, sessionID); err != nil {
					errCount.Add(1)
				}
			} else {
				if _, err := store.IsRevoked(ctx, sessionID); err != nil {
					errCount.Add(1)
				}
			}
		}(i)
	}

	wg.Wait()

	s.Equal(int32(0), errCount.Load(), "no operation should error")

	revoked, err := store.IsRevoked(ctx, sessionID)
	s.Require().NoError(err)
	s.True(revoked)
}
