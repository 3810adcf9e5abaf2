package historyrepo

import (
	"context"
	"sync"

	"github.com/yanqian/wanderwise/internal/domain/recommender"
)

// MemoryRepository is an in-memory query log for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []recommender.QueryEntry
}

// NewMemoryRepository constructs a log backed by process memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Record appends one answered query.
func (r *MemoryRepository) Record(_ context.Context, entry recommender.QueryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

// Recent returns the newest entries first.
func (r *MemoryRepository) Recent(_ context.Context, limit int) ([]recommender.QueryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.entries) {
		limit = len(r.entries)
	}
	out := make([]recommender.QueryEntry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

var _ recommender.QueryLog = (*MemoryRepository)(nil)
