package memory

import (
	"context"
	"sync"

	"whirlpool-range-lab/internal/domain"
	"whirlpool-range-lab/internal/storage"
)

var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PoolSnapshot // keyed by pool address
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*domain.PoolSnapshot),
	}
}

// Put replaces the stored snapshot for s.Address.
func (st *SnapshotStore) Put(_ context.Context, s *domain.PoolSnapshot) error {
	if s == nil || s.Address == "" {
		return storage.ErrInvalidInput
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	// Store a copy to prevent external mutation
	snapshotCopy := *s
	st.data[s.Address] = &snapshotCopy
	return nil
}

// Latest returns the stored snapshot. Returns ErrNotFound if none.
func (st *SnapshotStore) Latest(_ context.Context, pool string) (*domain.PoolSnapshot, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, exists := st.data[pool]
	if !exists {
		return nil, storage.ErrNotFound
	}

	snapshotCopy := *s
	return &snapshotCopy, nil
}
