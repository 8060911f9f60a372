package liquidity

import (
	"errors"
	"sort"

	"whirlpool-range-lab/internal/domain"
)

// ErrInvalidOrdering is returned when samples are not strictly ascending by tick.
var ErrInvalidOrdering = errors.New("tick samples are not in ascending tick order")

// SortSamples orders samples by tick index ascending.
func SortSamples(samples []domain.TickSample) {
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].TickIndex < samples[j].TickIndex
	})
}

// ValidateSampleOrdering checks that ticks are strictly ascending.
// Returns ErrInvalidOrdering if not.
func ValidateSampleOrdering(samples []domain.TickSample) error {
	for i := 1; i < len(samples); i++ {
		if samples[i-1].TickIndex >= samples[i].TickIndex {
			return ErrInvalidOrdering
		}
	}
	return nil
}
