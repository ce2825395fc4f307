package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryWindowStore implements sliding-window counting in memory. The
// sliding window avoids the boundary burst a fixed window allows: a client
// cannot double its budget by straddling two windows.
type InMemoryWindowStore struct {
	mu      sync.Mutex
	windows map[string]*slidingWindow
	ops     int
}

// sweepEvery bounds how many mutations pass between full sweeps of drained
// windows. Distinct-IP churn would otherwise grow the map without bound.
const sweepEvery = 4096

type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

// NewInMemoryWindowStore creates an empty window store.
func NewInMemoryWindowStore() *InMemoryWindowStore {
	return &InMemoryWindowStore{windows: make(map[string]*slidingWindow)}
}

// Allow checks whether one more request fits under limit within window, and
// records it if so.
func (s *InMemoryWindowStore) Allow(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.maybeSweep(now)
	sw := s.getOrCreate(key, window)
	sw.expire(now)

	if len(sw.timestamps)+1 > limit {
		resetAt := now.Add(window)
		if len(sw.timestamps) > 0 {
			resetAt = sw.timestamps[0].Add(window)
		}
		return &Result{Allowed: false, Limit: limit, Remaining: 0, ResetAt: resetAt}, nil
	}

	sw.timestamps = append(sw.timestamps, now)
	return &Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(sw.timestamps),
		ResetAt:   sw.timestamps[0].Add(window),
	}, nil
}

// Count returns the number of events currently inside the window for key.
func (s *InMemoryWindowStore) Count(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sw := s.windows[key]
	if sw == nil {
		return 0, nil
	}
	sw.expire(time.Now())
	if len(sw.timestamps) == 0 {
		delete(s.windows, key)
	}
	return len(sw.timestamps), nil
}

// Record adds an event to the window without an allowance check. The lockout
// service uses this to count failed logins.
func (s *InMemoryWindowStore) Record(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.maybeSweep(now)
	sw := s.getOrCreate(key, window)
	sw.expire(now)
	sw.timestamps = append(sw.timestamps, now)
	return len(sw.timestamps), nil
}

// Reset clears the window for a key.
func (s *InMemoryWindowStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}

func (s *InMemoryWindowStore) getOrCreate(key string, window time.Duration) *slidingWindow {
	if sw := s.windows[key]; sw != nil {
		return sw
	}
	sw := &slidingWindow{window: window}
	s.windows[key] = sw
	return sw
}

// maybeSweep drops drained windows once every sweepEvery mutations. Callers
// must hold the lock.
func (s *InMemoryWindowStore) maybeSweep(now time.Time) {
	s.ops++
	if s.ops < sweepEvery {
		return
	}
	s.ops = 0
	for key, sw := range s.windows {
		sw.expire(now)
		if len(sw.timestamps) == 0 {
			delete(s.windows, key)
		}
	}
}

// expire drops timestamps older than the window.
func (sw *slidingWindow) expire(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}
