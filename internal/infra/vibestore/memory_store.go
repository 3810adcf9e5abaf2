package vibestore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/wanderwise/internal/domain/vibe"
)

type promptRecord struct {
	prompts   []string
	expiresAt time.Time
}

// MemoryStore is an in-memory prompt cache for tests/dev.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]promptRecord
}

// NewMemoryStore constructs a cache backed by process memory.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]promptRecord),
	}
}

// GetPrompts implements vibe.Store.
func (s *MemoryStore) GetPrompts(_ context.Context, mood string) ([]string, bool, error) {
	if mood == "" {
		return nil, false, nil
	}
	s.mu.RLock()
	record, ok := s.entries[mood]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if hasExpired(record.expiresAt) {
		s.mu.Lock()
		delete(s.entries, mood)
		s.mu.Unlock()
		return nil, false, nil
	}
	prompts := make([]string, len(record.prompts))
	copy(prompts, record.prompts)
	return prompts, true, nil
}

// SavePrompts caches the prompt list with the configured TTL.
func (s *MemoryStore) SavePrompts(_ context.Context, mood string, prompts []string) error {
	if mood == "" {
		return nil
	}
	stored := make([]string, len(prompts))
	copy(stored, prompts)
	exp := time.Time{}
	if s.ttl > 0 {
		exp = time.Now().Add(s.ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[mood] = promptRecord{prompts: stored, expiresAt: exp}
	return nil
}

func hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(time.Now())
}

var _ vibe.Store = (*MemoryStore)(nil)
