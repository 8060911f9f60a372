// Package reporting renders a pool view as CSV or Markdown.
package reporting

import (
	"time"

	"whirlpool-range-lab/internal/domain"
	"whirlpool-range-lab/internal/poolview"
)

// Report is one rendered view of a pool.
type Report struct {
	GeneratedAt time.Time
	Snapshot    *domain.PoolSnapshot
	Range       poolview.RangeView
	Bins        []domain.HistogramBin
	Summary     Summary
}

// Summary holds aggregate figures over the bins.
type Summary struct {
	TotalBins     int
	ActiveBins    int
	PeakTick      int32
	PeakPrice     string
	PeakLiquidity float64
	// ActiveShare is the active bins' share of total displayed liquidity.
	ActiveShare float64
}

// NewReport builds a Report and computes its summary.
func NewReport(now time.Time, snap *domain.PoolSnapshot, view poolview.RangeView, bins []domain.HistogramBin) *Report {
	return &Report{
		GeneratedAt: now.UTC(),
		Snapshot:    snap,
		Range:       view,
		Bins:        bins,
		Summary:     Summarize(bins),
	}
}

// Summarize computes bin counts, the tallest bin and the active share.
// Negative bar heights count as zero toward the share.
func Summarize(bins []domain.HistogramBin) Summary {
	s := Summary{TotalBins: len(bins)}
	var total, active float64
	for i, b := range bins {
		if i == 0 || b.Liquidity > s.PeakLiquidity {
			s.PeakTick = b.Tick
			s.PeakPrice = b.Price
			s.PeakLiquidity = b.Liquidity
		}
		height := b.Liquidity
		if height < 0 {
			height = 0
		}
		total += height
		if b.Active {
			s.ActiveBins++
			active += height
		}
	}
	if total > 0 {
		s.ActiveShare = active / total
	}
	return s
}
