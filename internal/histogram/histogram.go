// Package histogram turns per-tick liquidity samples into chart bins.
package histogram

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"whirlpool-range-lab/internal/domain"
)

// DisplayScale divides raw liquidity before display.
const DisplayScale = 1e6

// PricePlaces is the number of decimal places in HistogramBin.Price.
const PricePlaces = 6

var displayScale = decimal.NewFromFloat(DisplayScale)

// Build returns one bin per sample, ascending by tick. Bar height is the
// running sum of net liquidity from the leftmost sample, weighted by
// sqrt(price). Samples are re-sorted first; the input is not modified.
func Build(samples []domain.TickSample) []domain.HistogramBin {
	sorted := make([]domain.TickSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TickIndex < sorted[j].TickIndex
	})

	bins := make([]domain.HistogramBin, len(sorted))
	cumulative := decimal.Zero
	for i, s := range sorted {
		cumulative = cumulative.Add(s.LiquidityNet)

		price := s.Price.InexactFloat64()
		sqrtPrice := 0.0
		if price > 0 {
			sqrtPrice = math.Sqrt(price)
		}

		bins[i] = domain.HistogramBin{
			Tick:      s.TickIndex,
			Price:     s.Price.StringFixed(PricePlaces),
			PriceNum:  price,
			Liquidity: cumulative.InexactFloat64() * sqrtPrice / DisplayScale,
			Change:    s.LiquidityNet.Div(displayScale).InexactFloat64(),
			Active:    s.Active,
		}
	}
	return bins
}

// Tag returns a copy of samples with Active set for ticks inside user.
func Tag(samples []domain.TickSample, user domain.TickRange) []domain.TickSample {
	out := make([]domain.TickSample, len(samples))
	for i, s := range samples {
		s.Active = user.Contains(s.TickIndex)
		out[i] = s
	}
	return out
}

// TagBins returns a copy of bins with Active recomputed for user.
func TagBins(bins []domain.HistogramBin, user domain.TickRange) []domain.HistogramBin {
	out := make([]domain.HistogramBin, len(bins))
	for i, b := range bins {
		b.Active = user.Contains(b.Tick)
		out[i] = b
	}
	return out
}
