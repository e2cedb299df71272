package history

import (
	"sync"
	"time"

	"github.com/ManuelReschke/ProposalCraft/app/models"
)

// MemoryStore keeps entries for the lifetime of the process.
type MemoryStore struct {
	mu        sync.RWMutex
	bySession map[string][]models.HistoryEntry
	bySlug    map[string]models.HistoryEntry
	total     int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bySession: make(map[string][]models.HistoryEntry),
		bySlug:    make(map[string]models.HistoryEntry),
	}
}

func (s *MemoryStore) Append(entry *models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bySession[entry.SessionID] = append(s.bySession[entry.SessionID], *entry)
	if entry.ShareSlug != "" {
		s.bySlug[entry.ShareSlug] = *entry
	}
	s.total++
	return nil
}

func (s *MemoryStore) ListBySession(sessionID string, limit int) ([]models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.bySession[sessionID]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]models.HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *MemoryStore) GetByShareSlug(slug string) (*models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.bySlug[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (s *MemoryStore) Count() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total, nil
}

func (s *MemoryStore) CountSince(t time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, entries := range s.bySession {
		for _, e := range entries {
			if !e.CreatedAt.Before(t) {
				n++
			}
		}
	}
	return n, nil
}
