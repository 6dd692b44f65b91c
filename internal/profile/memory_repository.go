package profile

import (
	"context"
	"sort"
	"sync"
)

// memoryRepository implements Repository using in-memory storage
type memoryRepository struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository() Repository {
	return &memoryRepository{
		records: make(map[string]Record),
	}
}

func (r *memoryRepository) Get(ctx context.Context, userID string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.records[userID]
	if !exists {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (r *memoryRepository) Set(ctx context.Context, userID string, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[userID] = rec
	return nil
}

func (r *memoryRepository) ListPendingDrivers(ctx context.Context, limit int) ([]PendingDriver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []PendingDriver
	for id, rec := range r.records {
		if rec.Role == RoleDriver && !rec.Verified {
			pending = append(pending, PendingDriver{UserID: id, Record: rec})
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].UserID < pending[j].UserID })
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}
