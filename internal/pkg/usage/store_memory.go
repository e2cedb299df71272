package usage

import (
	"context"
	"sync"
	"time"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/bucket"
)

// MemoryStore keeps profiles in process memory. Profiles live as long as the
// process, which matches the per-session lifetime of the default deployment.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]*Profile)}
}

// Record applies one observed use.
func (s *MemoryStore) Record(ctx context.Context, identity, fingerprint string, now time.Time) (*Profile, error) {
	day := bucket.DayOf(now)
	hour := bucket.HourOf(now)

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[identity]
	if !ok {
		p = newProfile(identity, day)
		s.profiles[identity] = p
	}

	p.LastSeen = day
	if fingerprint != "" {
		p.Fingerprints[fingerprint] = struct{}{}
	}
	p.TotalUsage++
	p.Daily[day]++
	p.Hourly[hour]++

	return p.Clone(), nil
}

// Load returns a copy of the stored profile or nil.
func (s *MemoryStore) Load(ctx context.Context, identity string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.profiles[identity].Clone(), nil
}
