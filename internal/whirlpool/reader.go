package whirlpool

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"whirlpool-range-lab/internal/domain"
	"whirlpool-range-lab/internal/liquidity"
	"whirlpool-range-lab/internal/solana"
	"whirlpool-range-lab/internal/tickmath"
)

var tracer = otel.Tracer("whirlpool-range-lab/whirlpool")

// PriceSignificantDigits is the precision of PoolSnapshot.CurrentPrice.
const PriceSignificantDigits = 8

// RPCShardReader reads tick arrays with one getMultipleAccounts call.
type RPCShardReader struct {
	rpc solana.RPCClient
}

// NewRPCShardReader creates a shard reader over rpc.
func NewRPCShardReader(rpc solana.RPCClient) *RPCShardReader {
	return &RPCShardReader{rpc: rpc}
}

// ReadShards implements liquidity.ShardReader.
func (r *RPCShardReader) ReadShards(ctx context.Context, addresses []string) ([][]byte, error) {
	accounts, err := r.rpc.GetMultipleAccounts(ctx, addresses)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(addresses))
	for i, acc := range accounts {
		if acc != nil {
			out[i] = acc.Data
		}
	}
	return out, nil
}

var _ liquidity.ShardReader = (*RPCShardReader)(nil)

// DecimalsResolver resolves token decimals from a static table, then an
// LRU cache, then the mint account.
type DecimalsResolver struct {
	rpc   solana.RPCClient
	cache *lru.Cache[string, int]
}

// NewDecimalsResolver creates a resolver caching up to size mints.
func NewDecimalsResolver(rpc solana.RPCClient, size int) (*DecimalsResolver, error) {
	if size <= 0 {
		size = 128
	}
	cache, err := lru.New[string, int](size)
	if err != nil {
		return nil, fmt.Errorf("create decimals cache: %w", err)
	}
	return &DecimalsResolver{rpc: rpc, cache: cache}, nil
}

// Decimals returns the decimals of mint.
func (r *DecimalsResolver) Decimals(ctx context.Context, mint string) (int, error) {
	if tok, ok := knownTokens[mint]; ok {
		return tok.decimals, nil
	}
	if d, ok := r.cache.Get(mint); ok {
		return d, nil
	}

	info, err := r.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		return 0, fmt.Errorf("%w: mint %s: %v", ErrUndeterminableDecimals, mint, err)
	}
	if info == nil {
		return 0, fmt.Errorf("%w: mint %s not found", ErrUndeterminableDecimals, mint)
	}
	d, err := ParseMintDecimals(info.Data)
	if err != nil {
		return 0, fmt.Errorf("%w: mint %s: %v", ErrUndeterminableDecimals, mint, err)
	}

	r.cache.Add(mint, d)
	return d, nil
}

// ParseMintDecimals reads the decimals byte of an SPL token mint.
// Layout: mintAuthority option (36) | supply u64 (8) | decimals u8 | ...
func ParseMintDecimals(data []byte) (int, error) {
	if len(data) < MintAccountMinSize {
		return 0, fmt.Errorf("mint data too short: %d", len(data))
	}
	return int(data[mintDecimalsOffset]), nil
}

// PoolReader assembles PoolSnapshots from the pool account and its mints.
type PoolReader struct {
	rpc      solana.RPCClient
	decimals *DecimalsResolver
	logger   *zap.Logger
	now      func() time.Time
}

// NewPoolReader creates a pool reader.
func NewPoolReader(rpc solana.RPCClient, decimals *DecimalsResolver, logger *zap.Logger) *PoolReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolReader{
		rpc:      rpc,
		decimals: decimals,
		logger:   logger,
		now:      time.Now,
	}
}

// ReadPool fetches and decodes the pool at address.
func (r *PoolReader) ReadPool(ctx context.Context, address string) (*domain.PoolSnapshot, error) {
	ctx, span := tracer.Start(ctx, "PoolReader.ReadPool")
	defer span.End()
	span.SetAttributes(attribute.String("pool", address))

	snap, err := r.readPool(ctx, address)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return snap, nil
}

func (r *PoolReader) readPool(ctx context.Context, address string) (*domain.PoolSnapshot, error) {
	info, err := r.rpc.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("read pool %s: %w", address, err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, address)
	}

	pool, err := DecodeWhirlpool(info.Data)
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", address, err)
	}

	mintA, mintB := pool.TokenMintA.String(), pool.TokenMintB.String()
	decA, err := r.decimals.Decimals(ctx, mintA)
	if err != nil {
		return nil, err
	}
	decB, err := r.decimals.Decimals(ctx, mintB)
	if err != nil {
		return nil, err
	}

	sqrt := pool.SqrtPrice.Big()
	price := tickmath.SqrtPriceX64ToPrice(sqrt, decA, decB)

	snap := &domain.PoolSnapshot{
		Address:          address,
		TokenA:           domain.TokenInfo{Mint: mintA, Symbol: TokenSymbol(mintA), Decimals: decA},
		TokenB:           domain.TokenInfo{Mint: mintB, Symbol: TokenSymbol(mintB), Decimals: decB},
		CurrentPrice:     tickmath.RoundSignificant(price, PriceSignificantDigits).String(),
		SqrtPriceX64:     sqrt.String(),
		TickCurrentIndex: pool.TickCurrentIndex,
		TickSpacing:      int32(pool.TickSpacing),
		Liquidity:        pool.Liquidity.String(),
		FeeRate:          pool.FeeRate,
		FetchedAt:        r.now().UnixMilli(),
	}

	r.logger.Debug("pool read",
		zap.String("pool", address),
		zap.String("price", snap.CurrentPrice),
		zap.Int32("tick", snap.TickCurrentIndex))

	return snap, nil
}
