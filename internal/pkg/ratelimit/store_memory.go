package ratelimit

import (
	"context"
	"sync"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/bucket"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/entitlements"
)

type counters struct {
	daily  map[bucket.Day]int64
	hourly map[bucket.Hour]int64
}

// MemoryStore is the in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	state map[string]*counters
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: make(map[string]*counters)}
}

func (s *MemoryStore) Counts(ctx context.Context, identity string, day bucket.Day, hour bucket.Hour) (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.state[identity]
	if !ok {
		return 0, 0, nil
	}
	return c.daily[day], c.hourly[hour], nil
}

func (s *MemoryStore) Consume(ctx context.Context, identity string, day bucket.Day, hour bucket.Hour, limits entitlements.Limits) (Consumption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.state[identity]
	if !ok {
		c = &counters{
			daily:  make(map[bucket.Day]int64),
			hourly: make(map[bucket.Hour]int64),
		}
		s.state[identity] = c
	}

	res := Consumption{Daily: c.daily[day], Hourly: c.hourly[hour]}
	switch {
	case res.Daily >= limits.Daily:
		res.Window = WindowDay
	case res.Hourly >= limits.Hourly:
		res.Window = WindowHour
	default:
		c.daily[day]++
		c.hourly[hour]++
		res.Allowed = true
		res.Daily, res.Hourly = c.daily[day], c.hourly[hour]
	}
	return res, nil
}
