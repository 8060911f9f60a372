package storage

import (
	"context"

	"whirlpool-range-lab/internal/domain"
)

// SnapshotStore keeps the latest pool snapshot per pool address.
type SnapshotStore interface {
	// Put replaces the stored snapshot for s.Address.
	Put(ctx context.Context, s *domain.PoolSnapshot) error

	// Latest returns the stored snapshot. Returns ErrNotFound if none.
	Latest(ctx context.Context, pool string) (*domain.PoolSnapshot, error)
}

// SampleSet is the result of one liquidity fetch over a chart range.
type SampleSet struct {
	Pool      string
	Chart     domain.TickRange
	Samples   []domain.TickSample
	FetchedAt int64 // unix ms
}

// SampleStore keeps the latest tick samples per pool address.
type SampleStore interface {
	// Put replaces the stored sample set for set.Pool.
	Put(ctx context.Context, set *SampleSet) error

	// Latest returns the stored sample set. Returns ErrNotFound if none.
	Latest(ctx context.Context, pool string) (*SampleSet, error)

	// GetByChart returns the stored samples only if they were fetched for
	// exactly the given chart range. Returns ErrNotFound otherwise.
	GetByChart(ctx context.Context, pool string, chart domain.TickRange) (*SampleSet, error)
}
