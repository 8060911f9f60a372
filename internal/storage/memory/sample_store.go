package memory

import (
	"context"
	"sync"

	"whirlpool-range-lab/internal/domain"
	"whirlpool-range-lab/internal/storage"
)

var _ storage.SampleStore = (*SampleStore)(nil)

// SampleStore is an in-memory implementation of storage.SampleStore.
type SampleStore struct {
	mu   sync.RWMutex
	data map[string]*storage.SampleSet // keyed by pool address
}

// NewSampleStore creates a new in-memory sample store.
func NewSampleStore() *SampleStore {
	return &SampleStore{
		data: make(map[string]*storage.SampleSet),
	}
}

// Put replaces the stored sample set for set.Pool.
func (s *SampleStore) Put(_ context.Context, set *storage.SampleSet) error {
	if set == nil || set.Pool == "" || !set.Chart.Valid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[set.Pool] = copySampleSet(set)
	return nil
}

// Latest returns the stored sample set. Returns ErrNotFound if none.
func (s *SampleStore) Latest(_ context.Context, pool string) (*storage.SampleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, exists := s.data[pool]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copySampleSet(set), nil
}

// GetByChart returns the stored samples if they cover exactly chart.
func (s *SampleStore) GetByChart(_ context.Context, pool string, chart domain.TickRange) (*storage.SampleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, exists := s.data[pool]
	if !exists || set.Chart != chart {
		return nil, storage.ErrNotFound
	}
	return copySampleSet(set), nil
}

func copySampleSet(set *storage.SampleSet) *storage.SampleSet {
	c := *set
	c.Samples = make([]domain.TickSample, len(set.Samples))
	copy(c.Samples, set.Samples)
	return &c
}
