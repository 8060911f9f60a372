package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Pool Liquidity Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Pool
	sb.WriteString("## Pool\n\n")
	if r.Snapshot != nil {
		s := r.Snapshot
		sb.WriteString("| Field | Value |\n")
		sb.WriteString("|-------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Address | %s |\n", s.Address))
		sb.WriteString(fmt.Sprintf("| Pair | %s/%s |\n", s.TokenA.Symbol, s.TokenB.Symbol))
		sb.WriteString(fmt.Sprintf("| Price | %s |\n", s.CurrentPrice))
		sb.WriteString(fmt.Sprintf("| Current Tick | %d |\n", s.TickCurrentIndex))
		sb.WriteString(fmt.Sprintf("| Tick Spacing | %d |\n", s.TickSpacing))
		sb.WriteString(fmt.Sprintf("| Liquidity | %s |\n", s.Liquidity))
	} else {
		sb.WriteString("No pool snapshot available.\n")
	}
	sb.WriteString("\n")

	// Range
	st := r.Range.State
	sb.WriteString("## Range\n\n")
	sb.WriteString("| Bound | Tick | Price | From Current |\n")
	sb.WriteString("|-------|------|-------|--------------|\n")
	sb.WriteString(fmt.Sprintf("| Min | %d | %s | %s%% |\n", st.UserMinTick, r.Range.MinPrice, r.Range.MinPct))
	sb.WriteString(fmt.Sprintf("| Max | %d | %s | %s%% |\n", st.UserMaxTick, r.Range.MaxPrice, r.Range.MaxPct))
	sb.WriteString(fmt.Sprintf("\nChart ticks: %d to %d\n\n", st.ChartMinTick, st.ChartMaxTick))

	// Histogram summary
	sm := r.Summary
	sb.WriteString("## Histogram\n\n")
	if sm.TotalBins == 0 {
		sb.WriteString("No histogram bins available.\n")
		return sb.String()
	}
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Bins | %d |\n", sm.TotalBins))
	sb.WriteString(fmt.Sprintf("| Active Bins | %d |\n", sm.ActiveBins))
	sb.WriteString(fmt.Sprintf("| Peak Tick | %d |\n", sm.PeakTick))
	sb.WriteString(fmt.Sprintf("| Peak Price | %s |\n", sm.PeakPrice))
	sb.WriteString(fmt.Sprintf("| Peak Liquidity | %.4f |\n", sm.PeakLiquidity))
	sb.WriteString(fmt.Sprintf("| Active Share | %.2f%% |\n", sm.ActiveShare*100))
	sb.WriteString("\n")

	return sb.String()
}
