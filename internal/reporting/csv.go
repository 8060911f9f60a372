package reporting

import (
	"fmt"
	"strings"

	"whirlpool-range-lab/internal/domain"
)

// RenderCSV renders histogram bins as CSV string, one row per bin in
// input order.
func RenderCSV(bins []domain.HistogramBin) string {
	var sb strings.Builder

	// Header
	sb.WriteString("tick,price,liquidity,change,active\n")

	// Rows
	for _, b := range bins {
		sb.WriteString(fmt.Sprintf("%d,%s,%.6f,%.6f,%t\n",
			b.Tick,
			b.Price,
			b.Liquidity,
			b.Change,
			b.Active,
		))
	}

	return sb.String()
}
