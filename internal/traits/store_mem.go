package traits

import (
	"context"
	"sync"
)

// MemoryStore keeps profiles in a map.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[int64]Profile
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[int64]Profile)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, userID int64) (Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	return p, ok, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, userID int64, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = p
	return nil
}

// Interface guard.
var _ Store = (*MemoryStore)(nil)
