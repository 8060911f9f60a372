package whirlpool

type knownToken struct {
	symbol   string
	decimals int
}

var knownTokens = map[string]knownToken{
	WrappedSOLMint: {symbol: "SOL", decimals: 9},
	USDCMint:       {symbol: "USDC", decimals: 6},
	USDTMint:       {symbol: "USDT", decimals: 6},
}

// TokenSymbol returns the display symbol for mint: the known symbol, or
// the first six characters of the address followed by "...".
func TokenSymbol(mint string) string {
	if tok, ok := knownTokens[mint]; ok {
		return tok.symbol
	}
	if len(mint) <= 6 {
		return mint
	}
	return mint[:6] + "..."
}
