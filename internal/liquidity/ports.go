package liquidity

import (
	"context"
	"math/big"
)

// ShardReader performs one batched read of tick array accounts.
// The result has one entry per address, in request order; a nil entry
// means the account does not exist.
type ShardReader interface {
	ReadShards(ctx context.Context, addresses []string) ([][]byte, error)
}

// ShardLocator derives the account address of the shard starting at
// startTick for a pool.
type ShardLocator interface {
	ShardAddress(pool string, startTick int32) (string, error)
}

// TickDecoder extracts one tick's liquidity from raw shard data.
type TickDecoder interface {
	DecodeTick(data []byte, tick, tickSpacing int32) (TickLiquidity, error)
}

// TickLiquidity is the decoded liquidity state of a single tick.
type TickLiquidity struct {
	Initialized bool
	Net         *big.Int // signed
	Gross       *big.Int
}
