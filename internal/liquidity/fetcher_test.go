package liquidity_test

import (
	"context"
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whirlpool-range-lab/internal/domain"
	"whirlpool-range-lab/internal/liquidity"
	"whirlpool-range-lab/internal/solana"
	"whirlpool-range-lab/internal/solana/stub"
	"whirlpool-range-lab/internal/tickmath"
	"whirlpool-range-lab/internal/whirlpool"
)

const spacing = int32(64)

type fixture struct {
	rpc     *stub.RPCClient
	program whirlpool.Program
	fetcher *liquidity.Fetcher
	pool    solana.PublicKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	program, err := whirlpool.NewProgram(whirlpool.ProgramID)
	require.NoError(t, err)

	rpc := stub.NewRPCClient()
	f, err := liquidity.NewFetcher(liquidity.Options{
		Reader:  whirlpool.NewRPCShardReader(rpc),
		Locator: program,
		Decoder: program,
		Workers: 8,
	})
	require.NoError(t, err)
	t.Cleanup(f.Close)

	return &fixture{
		rpc:     rpc,
		program: program,
		fetcher: f,
		pool:    solana.MustPublicKey(whirlpool.DefaultPoolAddress),
	}
}

func (fx *fixture) putShard(t *testing.T, start int32, ticks map[int]whirlpool.FixtureTick) {
	t.Helper()
	addr, err := fx.program.ShardAddress(fx.pool.String(), start)
	require.NoError(t, err)
	fx.rpc.SetAccount(addr, whirlpool.EncodeTickArray(fx.pool, start, ticks))
}

func (fx *fixture) request(minTick, maxTick int32) liquidity.Request {
	return liquidity.Request{
		Pool:        fx.pool.String(),
		MinTick:     minTick,
		MaxTick:     maxTick,
		TickSpacing: spacing,
		DecimalsA:   9,
		DecimalsB:   6,
	}
}

func sampleAt(samples []domain.TickSample, tick int32) (domain.TickSample, bool) {
	for _, s := range samples {
		if s.TickIndex == tick {
			return s, true
		}
	}
	return domain.TickSample{}, false
}

func TestFetch_SingleBatchedRead(t *testing.T) {
	fx := newFixture(t)
	fx.putShard(t, -11264, map[int]whirlpool.FixtureTick{5: {Net: big.NewInt(1000), Gross: big.NewInt(1000)}})
	fx.putShard(t, -5632, nil)
	fx.putShard(t, 0, map[int]whirlpool.FixtureTick{10: {Net: big.NewInt(-1000), Gross: big.NewInt(1000)}})

	samples, err := fx.fetcher.Fetch(context.Background(), fx.request(-11000, 5000))
	require.NoError(t, err)

	calls := fx.rpc.MultipleAccountsCalls()
	require.Len(t, calls, 1, "exactly one batched read")
	assert.Len(t, calls[0], 3, "one address per covering shard")

	assert.Len(t, samples, 250)
	assert.NoError(t, liquidity.ValidateSampleOrdering(samples))
	assert.Equal(t, int32(-10944), samples[0].TickIndex)
	assert.Equal(t, int32(4992), samples[len(samples)-1].TickIndex)

	s, ok := sampleAt(samples, -10944)
	require.True(t, ok)
	assert.Equal(t, "1000", s.LiquidityNet.String())

	s, ok = sampleAt(samples, 640)
	require.True(t, ok)
	assert.Equal(t, "-1000", s.LiquidityNet.String())
	assert.Equal(t, "1000", s.LiquidityGross.String())

	want, err := tickmath.TickToPrice(640, 9, 6)
	require.NoError(t, err)
	assert.True(t, s.Price.Equal(want))
}

func TestFetch_AbsentShardZeroFilled(t *testing.T) {
	fx := newFixture(t)
	fx.putShard(t, -11264, map[int]whirlpool.FixtureTick{5: {Net: big.NewInt(1000), Gross: big.NewInt(1000)}})
	// -5632 and 0 are never written.

	samples, err := fx.fetcher.Fetch(context.Background(), fx.request(-11000, 5000))
	require.NoError(t, err)

	assert.Len(t, samples, 250, "absent shards keep their ticks")
	for _, s := range samples {
		if s.TickIndex >= -5632 {
			assert.True(t, s.LiquidityNet.IsZero(), "tick %d", s.TickIndex)
			assert.True(t, s.LiquidityGross.IsZero(), "tick %d", s.TickIndex)
		}
	}
}

func TestFetch_TickDecodeFailureIsolated(t *testing.T) {
	fx := newFixture(t)
	data := whirlpool.EncodeTickArray(fx.pool, 0, map[int]whirlpool.FixtureTick{
		2:  {Net: big.NewInt(500), Gross: big.NewInt(500)},
		50: {Net: big.NewInt(700), Gross: big.NewInt(700)},
	})
	addr, err := fx.program.ShardAddress(fx.pool.String(), 0)
	require.NoError(t, err)
	// Keep slots 0..9 intact, truncate the rest.
	fx.rpc.SetAccount(addr, data[:whirlpool.TickArrayTicksOffset+10*whirlpool.TickSize])

	samples, err := fx.fetcher.Fetch(context.Background(), fx.request(0, 87*spacing))
	require.NoError(t, err)
	assert.Len(t, samples, 88)

	s, _ := sampleAt(samples, 2*spacing)
	assert.Equal(t, "500", s.LiquidityNet.String(), "intact slot decodes")

	s, _ = sampleAt(samples, 50*spacing)
	assert.True(t, s.LiquidityNet.IsZero(), "truncated slot is zero-filled")
}

func TestFetch_UninitializedTickZeroFilled(t *testing.T) {
	fx := newFixture(t)
	data := whirlpool.EncodeTickArray(fx.pool, 0, map[int]whirlpool.FixtureTick{
		3: {Net: big.NewInt(900), Gross: big.NewInt(900)},
		4: {Net: big.NewInt(400), Gross: big.NewInt(400)},
	})
	// Slot 4 keeps its liquidity bytes but loses the initialized flag.
	data[whirlpool.TickArrayTicksOffset+4*whirlpool.TickSize] = 0
	addr, err := fx.program.ShardAddress(fx.pool.String(), 0)
	require.NoError(t, err)
	fx.rpc.SetAccount(addr, data)

	samples, err := fx.fetcher.Fetch(context.Background(), fx.request(0, 10*spacing))
	require.NoError(t, err)

	s, _ := sampleAt(samples, 3*spacing)
	assert.Equal(t, "900", s.LiquidityNet.String())

	s, _ = sampleAt(samples, 4*spacing)
	assert.True(t, s.LiquidityNet.IsZero(), "uninitialized tick contributes nothing")
	assert.True(t, s.LiquidityGross.IsZero())
}

type panicDecoder struct{}

func (panicDecoder) DecodeTick([]byte, int32, int32) (liquidity.TickLiquidity, error) {
	panic("corrupt")
}

func TestFetch_DecoderPanicZeroFilled(t *testing.T) {
	fx := newFixture(t)
	fx.putShard(t, 0, nil)

	f, err := liquidity.NewFetcher(liquidity.Options{
		Reader:  whirlpool.NewRPCShardReader(fx.rpc),
		Locator: fx.program,
		Decoder: panicDecoder{},
	})
	require.NoError(t, err)
	defer f.Close()

	samples, err := f.Fetch(context.Background(), fx.request(0, 640))
	require.NoError(t, err)
	assert.Len(t, samples, 11)
	for _, s := range samples {
		assert.True(t, s.LiquidityNet.IsZero())
	}
}

func TestFetch_InvertedRange(t *testing.T) {
	fx := newFixture(t)

	samples, err := fx.fetcher.Fetch(context.Background(), fx.request(640, -640))
	require.NoError(t, err)
	assert.Empty(t, samples)
	assert.Empty(t, fx.rpc.MultipleAccountsCalls(), "no read for an inverted range")
}

func TestFetch_InvalidSpacing(t *testing.T) {
	fx := newFixture(t)
	req := fx.request(0, 640)
	req.TickSpacing = 0

	_, err := fx.fetcher.Fetch(context.Background(), req)
	assert.ErrorIs(t, err, tickmath.ErrInvalidTickSpacing)
}

func TestFetch_ReadFailure(t *testing.T) {
	fx := newFixture(t)
	fx.rpc.Fail = true

	_, err := fx.fetcher.Fetch(context.Background(), fx.request(0, 640))
	assert.ErrorIs(t, err, liquidity.ErrShardRead)
}

type shortReader struct{}

func (shortReader) ReadShards(context.Context, []string) ([][]byte, error) {
	return nil, nil
}

func TestFetch_ShortReadResult(t *testing.T) {
	fx := newFixture(t)
	f, err := liquidity.NewFetcher(liquidity.Options{
		Reader:  shortReader{},
		Locator: fx.program,
		Decoder: fx.program,
	})
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Fetch(context.Background(), fx.request(0, 640))
	assert.ErrorIs(t, err, liquidity.ErrShardRead)
}

func TestNewFetcher_RequiresPorts(t *testing.T) {
	_, err := liquidity.NewFetcher(liquidity.Options{})
	assert.Error(t, err)
}

func TestSortSamples(t *testing.T) {
	samples := make([]domain.TickSample, 50)
	for i := range samples {
		samples[i] = domain.TickSample{TickIndex: int32(i-25) * spacing, LiquidityNet: decimal.NewFromInt(int64(i))}
	}
	rng := rand.New(rand.NewSource(7))
	rng.Shuffle(len(samples), func(i, j int) { samples[i], samples[j] = samples[j], samples[i] })

	require.True(t, errors.Is(liquidity.ValidateSampleOrdering(samples), liquidity.ErrInvalidOrdering))

	liquidity.SortSamples(samples)
	assert.NoError(t, liquidity.ValidateSampleOrdering(samples))
	for i, s := range samples {
		assert.Equal(t, int32(i-25)*spacing, s.TickIndex)
		assert.Equal(t, int64(i), s.LiquidityNet.IntPart())
	}
}
