// Package liquidity reads per-tick liquidity for a tick range from the
// ledger in a single batched shard read.
package liquidity

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"whirlpool-range-lab/internal/domain"
	"whirlpool-range-lab/internal/observability"
	"whirlpool-range-lab/internal/tickarray"
	"whirlpool-range-lab/internal/tickmath"
)

// ErrShardRead is returned when the batched shard read fails as a whole.
var ErrShardRead = errors.New("liquidity: shard read failed")

var tracer = otel.Tracer("whirlpool-range-lab/liquidity")

// Request describes one liquidity fetch.
type Request struct {
	Pool        string
	MinTick     int32
	MaxTick     int32
	TickSpacing int32
	DecimalsA   int
	DecimalsB   int
}

// Options configures a Fetcher.
type Options struct {
	Reader  ShardReader
	Locator ShardLocator
	Decoder TickDecoder
	// Workers bounds concurrent tick decoding. Zero means GOMAXPROCS.
	Workers int
	Logger  *zap.Logger
}

// Fetcher produces ordered TickSamples for a tick range.
type Fetcher struct {
	reader  ShardReader
	locator ShardLocator
	decoder TickDecoder
	pool    *ants.Pool
	logger  *zap.Logger
}

// NewFetcher creates a Fetcher. Close releases its worker pool.
func NewFetcher(opts Options) (*Fetcher, error) {
	if opts.Reader == nil || opts.Locator == nil || opts.Decoder == nil {
		return nil, errors.New("liquidity: reader, locator and decoder are required")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create decode pool: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		reader:  opts.Reader,
		locator: opts.Locator,
		decoder: opts.Decoder,
		pool:    pool,
		logger:  logger,
	}, nil
}

// Close releases the worker pool.
func (f *Fetcher) Close() {
	f.pool.Release()
}

// Fetch returns one sample per initializable tick in [MinTick, MaxTick],
// ascending by tick. Ticks whose shard is absent or whose slot fails to
// decode carry zero liquidity. An inverted range yields no samples.
func (f *Fetcher) Fetch(ctx context.Context, req Request) ([]domain.TickSample, error) {
	ctx, span := tracer.Start(ctx, "Fetcher.Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("pool", req.Pool),
		attribute.Int("min_tick", int(req.MinTick)),
		attribute.Int("max_tick", int(req.MaxTick)),
	)

	samples, err := f.fetch(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("samples", len(samples)))
	return samples, nil
}

func (f *Fetcher) fetch(ctx context.Context, req Request) ([]domain.TickSample, error) {
	if err := tickmath.CheckTickSpacing(req.TickSpacing); err != nil {
		return nil, err
	}
	if req.MinTick > req.MaxTick {
		f.logger.Debug("inverted tick range, nothing to fetch",
			zap.Int32("min_tick", req.MinTick),
			zap.Int32("max_tick", req.MaxTick))
		return []domain.TickSample{}, nil
	}

	ticks := tickarray.InitializableTicks(req.MinTick, req.MaxTick, req.TickSpacing)
	if len(ticks) == 0 {
		return []domain.TickSample{}, nil
	}

	shards, err := f.readShards(ctx, req)
	if err != nil {
		return nil, err
	}

	samples := make([]domain.TickSample, 0, len(ticks))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, tick := range ticks {
		tick := tick
		task := func() {
			defer wg.Done()
			s := f.sample(tick, req, shards[tickarray.StartTickIndex(tick, req.TickSpacing)])
			mu.Lock()
			samples = append(samples, s)
			mu.Unlock()
		}
		wg.Add(1)
		if err := f.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Workers finish in any order.
	SortSamples(samples)
	return samples, nil
}

// readShards issues the single batched read and keys the results by shard
// start tick. Absent shards map to nil.
func (f *Fetcher) readShards(ctx context.Context, req Request) (map[int32][]byte, error) {
	starts := tickarray.ShardsCovering(req.MinTick, req.MaxTick, req.TickSpacing)
	addresses := make([]string, len(starts))
	for i, start := range starts {
		addr, err := f.locator.ShardAddress(req.Pool, start)
		if err != nil {
			return nil, fmt.Errorf("shard address for %d: %w", start, err)
		}
		addresses[i] = addr
	}

	data, err := f.reader.ReadShards(ctx, addresses)
	observability.RecordShardRead(len(addresses), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShardRead, err)
	}
	if len(data) != len(addresses) {
		return nil, fmt.Errorf("%w: requested %d shards, got %d", ErrShardRead, len(addresses), len(data))
	}

	shards := make(map[int32][]byte, len(starts))
	absent := 0
	for i, start := range starts {
		shards[start] = data[i]
		if data[i] == nil {
			absent++
		}
	}
	f.logger.Debug("shards read",
		zap.Int("requested", len(addresses)),
		zap.Int("absent", absent))
	return shards, nil
}

// sample builds the TickSample for tick, zero-filling on any failure.
func (f *Fetcher) sample(tick int32, req Request, shard []byte) domain.TickSample {
	price, err := tickmath.TickToPrice(tick, req.DecimalsA, req.DecimalsB)
	if err != nil {
		// Unreachable: InitializableTicks clips to protocol bounds.
		f.logger.Warn("tick price", zap.Int32("tick", tick), zap.Error(err))
	}
	s := domain.TickSample{
		TickIndex:      tick,
		LiquidityNet:   decimal.Zero,
		LiquidityGross: decimal.Zero,
		Price:          price,
	}
	if shard == nil {
		return s
	}

	liq, err := f.decodeTick(shard, tick, req.TickSpacing)
	if err != nil {
		observability.RecordTickDecodeError()
		f.logger.Warn("tick decode failed, using zero liquidity",
			zap.Int32("tick", tick),
			zap.Error(err))
		return s
	}
	if !liq.Initialized {
		return s
	}
	if liq.Net != nil {
		s.LiquidityNet = decimal.NewFromBigInt(liq.Net, 0)
	}
	if liq.Gross != nil {
		s.LiquidityGross = decimal.NewFromBigInt(liq.Gross, 0)
	}
	return s
}

// decodeTick isolates decoder panics to the tick being decoded.
func (f *Fetcher) decodeTick(shard []byte, tick, spacing int32) (liq TickLiquidity, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode panic: %v", r)
		}
	}()
	return f.decoder.DecodeTick(shard, tick, spacing)
}
