package quota

import (
	"context"
	"sync"
)

// MemoryStore keeps counters in a map. The mutex covers the map update only.
type MemoryStore struct {
	mu     sync.Mutex
	counts map[Key]int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counts: make(map[Key]int)}
}

// Increment implements Store.
func (s *MemoryStore) Increment(_ context.Context, key Key, limit int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.counts[key]
	if n >= limit {
		return n, false, nil
	}
	n++
	s.counts[key] = n
	return n, true, nil
}

// Reset implements Store.
func (s *MemoryStore) Reset(_ context.Context, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.counts {
		if k.Date == date {
			delete(s.counts, k)
		}
	}
	return nil
}

// Count returns the stored count for key.
func (s *MemoryStore) Count(key Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[key]
}

// Interface guard.
var _ Store = (*MemoryStore)(nil)
