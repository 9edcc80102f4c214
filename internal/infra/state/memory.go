// Package state provides the TTL key-value store backing rate limiting and
// the OAuth handshake tickets. The Redis implementation is shared between
// instances; the in-memory one covers single-node and test deployments.
package state

import (
	"context"
	"sync"
	"time"

	"atrium/internal/domain/service"
)

type memoryEntry struct {
	value     string
	count     int64
	expiresAt time.Time
}

// MemoryStore is a process-local StateStore. Expired entries are dropped
// lazily on access.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

var _ service.StateStore = (*MemoryStore)(nil)

// Incr increments the counter under key, starting the TTL window on the
// first increment.
func (s *MemoryStore) Incr(_ context.Context, key string, windowMillis int64) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.entries[key]
	if !ok || !entry.expiresAt.After(now) {
		entry = &memoryEntry{expiresAt: now.Add(time.Duration(windowMillis) * time.Millisecond)}
		s.entries[key] = entry
	}
	entry.count++

	return entry.count, entry.expiresAt.Sub(now).Milliseconds(), nil
}

// Get returns the value stored under key, if present and unexpired.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.After(s.now()) {
		delete(s.entries, key)

		return "", false, nil
	}

	return entry.value, true, nil
}

// Set stores value under key with a TTL in milliseconds.
func (s *MemoryStore) Set(_ context.Context, key, value string, ttlMillis int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &memoryEntry{
		value:     value,
		expiresAt: s.now().Add(time.Duration(ttlMillis) * time.Millisecond),
	}

	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)

	return nil
}
