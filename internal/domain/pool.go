package domain

// TokenInfo describes one side of a pool's token pair.
type TokenInfo struct {
	Mint     string `json:"mint"`     // token mint address (base58)
	Symbol   string `json:"symbol"`   // display symbol, derived from the mint when unknown
	Decimals int    `json:"decimals"` // token decimals
}

// PoolSnapshot is a read-only view of a pool's state at fetch time.
type PoolSnapshot struct {
	Address          string    `json:"address"`          // pool account address
	TokenA           TokenInfo `json:"tokenA"`           // base token
	TokenB           TokenInfo `json:"tokenB"`           // quote token
	CurrentPrice     string    `json:"currentPrice"`     // B per A, 8 significant digits
	SqrtPriceX64     string    `json:"sqrtPriceX64"`     // raw Q64.64 sqrt price
	TickCurrentIndex int32     `json:"tickCurrentIndex"` // current tick
	TickSpacing      int32     `json:"tickSpacing"`      // pool tick spacing
	Liquidity        string    `json:"liquidity"`        // in-range liquidity (u128 decimal)
	FeeRate          uint16    `json:"feeRate"`          // fee rate in hundredths of a bip
	FetchedAt        int64     `json:"fetchedAt"`        // Unix timestamp in milliseconds
}
