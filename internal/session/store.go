// Package session owns the mapping between canonical phone numbers and
// bot-side conversation identifiers.
package session

import (
	"context"
	"sync"
)

// Store is the minimal key-value capability the stateful correlator needs.
// Backed by an in-memory map in tests and by redis in production without
// changing call sites.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// MemoryStore is a process-lifetime map. No eviction; unbounded growth is an
// accepted limitation of this scope.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]string)}
}

// Get returns the stored value and whether the key exists.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.m[key]
	return value, ok, nil
}

// Set stores the value. Last write for a key wins.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}
