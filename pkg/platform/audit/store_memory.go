package audit

import (
	"context"
	"sync"
)

const defaultMemoryCap = 10000

// InMemoryStore keeps the most recent events in memory. It is the default
// sink for development and tests; production configures Postgres or Kafka.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
	cap    int
}

// NewInMemoryStore creates a store retaining at most cap events (oldest are
// discarded first). cap <= 0 uses the default.
func NewInMemoryStore(cap int) *InMemoryStore {
	if cap <= 0 {
		cap = defaultMemoryCap
	}
	return &InMemoryStore{cap: cap}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if len(s.events) > s.cap {
		s.events = s.events[len(s.events)-s.cap:]
	}
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	// Newest first.
	out := make([]Event, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.events[i]
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
