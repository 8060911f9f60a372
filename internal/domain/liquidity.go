package domain

import "github.com/shopspring/decimal"

// TickSample is the liquidity state at one initializable tick.
// Ticks absent from the ledger or failing to decode carry zero liquidity.
type TickSample struct {
	TickIndex      int32           `json:"tickIndex"`
	LiquidityNet   decimal.Decimal `json:"liquidityNet"`   // signed delta applied when crossing upward
	LiquidityGross decimal.Decimal `json:"liquidityGross"` // unsigned total referencing this tick
	Price          decimal.Decimal `json:"price"`          // B per A at this tick
	Active         bool            `json:"active"`         // inside the user range
}

// HistogramBin is one bar of the liquidity chart.
type HistogramBin struct {
	Tick      int32   `json:"tick"`
	Price     string  `json:"price"`     // fixed 6 decimal places
	PriceNum  float64 `json:"priceNum"`  // numeric price for axis placement
	Liquidity float64 `json:"liquidity"` // cumulative net liquidity scaled by sqrt(price)
	Change    float64 `json:"change"`    // liquidityNet at this tick, scaled
	Active    bool    `json:"active"`
}
