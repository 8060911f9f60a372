package rangestate

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whirlpool-range-lab/internal/domain"
	"whirlpool-range-lab/internal/tickmath"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func solUSDC(price string) Pool {
	return Pool{Price: d(price), DecimalsA: 9, DecimalsB: 6, TickSpacing: 64}
}

func loaded(t *testing.T) *Controller {
	t.Helper()
	c := New(DefaultConfig())
	changed, err := c.Load(solUSDC("150"))
	require.NoError(t, err)
	require.True(t, changed)
	return c
}

var initialState = domain.RangeState{
	ChartMinTick: -21120,
	ChartMaxTick: -17088,
	UserMinTick:  -20032,
	UserMaxTick:  -18048,
}

func TestController_Uninitialized(t *testing.T) {
	c := New(DefaultConfig())
	assert.Equal(t, PhaseUninitialized, c.Phase())

	_, err := c.State()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, c.Drag(PriceRange{Min: d("1"), Max: d("2")}), ErrNotInitialized)
	_, err = c.Commit(PriceRange{Min: d("1"), Max: d("2")})
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = c.Reset()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = c.PercentFromCurrent(0)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestController_Load(t *testing.T) {
	c := loaded(t)
	assert.Equal(t, PhaseInitialized, c.Phase())

	st, err := c.State()
	require.NoError(t, err)
	assert.Equal(t, initialState, st)

	t.Run("same price keeps chart", func(t *testing.T) {
		changed, err := c.Load(solUSDC("150"))
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("new price moves chart only", func(t *testing.T) {
		changed, err := c.Load(solUSDC("160"))
		require.NoError(t, err)
		assert.True(t, changed)

		st, err := c.State()
		require.NoError(t, err)
		assert.Equal(t, int32(-20480), st.ChartMinTick)
		assert.Equal(t, int32(-16448), st.ChartMaxTick)
		assert.Equal(t, int32(-20032), st.UserMinTick, "user range is not derived from the new price")
		assert.Equal(t, int32(-18048), st.UserMaxTick)
	})

	t.Run("invalid price rejected", func(t *testing.T) {
		before, _ := c.State()
		_, err := c.Load(solUSDC("0"))
		assert.ErrorIs(t, err, tickmath.ErrInvalidPrice)
		after, _ := c.State()
		assert.Equal(t, before, after)
	})

	t.Run("invalid spacing rejected", func(t *testing.T) {
		p := solUSDC("150")
		p.TickSpacing = 0
		_, err := c.Load(p)
		assert.ErrorIs(t, err, tickmath.ErrInvalidTickSpacing)
	})
}

func TestController_LoadNewMarketResetsUserRange(t *testing.T) {
	c := loaded(t)
	_, err := c.FullRange()
	require.NoError(t, err)

	p := solUSDC("150")
	p.TickSpacing = 8
	_, err = c.Load(p)
	require.NoError(t, err)

	st, err := c.State()
	require.NoError(t, err)
	assert.Zero(t, st.UserMinTick%8)
	assert.Less(t, st.UserMaxTick, int32(0), "user range re-derived from price")
}

func TestController_Commit(t *testing.T) {
	c := loaded(t)

	st, err := c.Commit(PriceRange{Min: d("140"), Max: d("170")})
	require.NoError(t, err)
	assert.Equal(t, int32(-19712), st.UserMinTick)
	assert.Equal(t, int32(-17728), st.UserMaxTick)
	assert.Equal(t, initialState.Chart(), st.Chart(), "commit leaves the chart alone")
}

func TestController_CommitGuard(t *testing.T) {
	c := loaded(t)

	st, err := c.Commit(PriceRange{Min: d("170"), Max: d("140")})
	assert.ErrorIs(t, err, ErrInvertedRange)
	assert.Equal(t, initialState, st)

	cur, err := c.State()
	require.NoError(t, err)
	assert.Equal(t, initialState, cur)

	_, err = c.Commit(PriceRange{Min: d("-1"), Max: d("140")})
	assert.ErrorIs(t, err, tickmath.ErrInvalidPrice)
	cur, _ = c.State()
	assert.Equal(t, initialState, cur)

	_, err = c.Commit(PriceRange{Min: d("140"), Max: d("1e40")})
	assert.ErrorIs(t, err, tickmath.ErrSqrtPriceOutOfBounds)
	cur, _ = c.State()
	assert.Equal(t, initialState, cur)
}

func TestController_DragAndCommit(t *testing.T) {
	c := loaded(t)

	require.NoError(t, c.Drag(PriceRange{Min: d("139"), Max: d("171")}))
	require.NoError(t, c.Drag(PriceRange{Min: d("140"), Max: d("170")}))
	assert.Equal(t, PhaseDragging, c.Phase())

	view, ok := c.DragView()
	require.True(t, ok)
	assert.True(t, view.Min.Equal(d("140")))

	st, err := c.State()
	require.NoError(t, err)
	assert.Equal(t, initialState, st, "drag does not touch committed state")

	st, err = c.CommitDrag()
	require.NoError(t, err)
	assert.Equal(t, int32(-19712), st.UserMinTick)
	assert.Equal(t, int32(-17728), st.UserMaxTick)
	assert.Equal(t, PhaseInitialized, c.Phase())

	_, ok = c.DragView()
	assert.False(t, ok)
}

func TestController_CommitDragGuard(t *testing.T) {
	c := loaded(t)

	require.NoError(t, c.Drag(PriceRange{Min: d("170"), Max: d("140")}))
	st, err := c.CommitDrag()
	assert.ErrorIs(t, err, ErrInvertedRange)
	assert.Equal(t, initialState, st)
	assert.Equal(t, PhaseInitialized, c.Phase(), "rejected drag still ends")
}

func TestController_CommitDragWithoutDrag(t *testing.T) {
	c := loaded(t)
	st, err := c.CommitDrag()
	require.NoError(t, err)
	assert.Equal(t, initialState, st)
}

func TestController_Steps(t *testing.T) {
	c := loaded(t)

	st, err := c.IncrementUserMin()
	require.NoError(t, err)
	assert.Equal(t, int32(-19968), st.UserMinTick)

	st, err = c.DecrementUserMax()
	require.NoError(t, err)
	assert.Equal(t, int32(-18112), st.UserMaxTick)

	st, err = c.StepUserMin(-3)
	require.NoError(t, err)
	assert.Equal(t, int32(-20160), st.UserMinTick)

	t.Run("crossing rejected", func(t *testing.T) {
		before, _ := c.State()
		gap := int((before.UserMaxTick - before.UserMinTick) / 64)
		_, err := c.StepUserMin(gap + 1)
		assert.ErrorIs(t, err, ErrInvertedRange)
		after, _ := c.State()
		assert.Equal(t, before, after)

		st, err := c.StepUserMin(gap)
		require.NoError(t, err)
		assert.Equal(t, st.UserMinTick, st.UserMaxTick, "min may meet max")
	})

	t.Run("out of bounds rejected", func(t *testing.T) {
		_, err := c.StepUserMax(1 << 30)
		assert.ErrorIs(t, err, tickmath.ErrTickOutOfBounds)
	})
}

func TestController_SetPrices(t *testing.T) {
	c := loaded(t)

	st, err := c.SetUserMinPrice(d("144"))
	require.NoError(t, err)
	assert.Equal(t, int32(-19392), st.UserMinTick)

	st, err = c.SetUserMaxPrice(d("176"))
	require.NoError(t, err)
	assert.Equal(t, int32(-17408), st.UserMaxTick)

	_, err = c.SetUserMinPrice(d("200"))
	assert.ErrorIs(t, err, ErrInvertedRange)

	_, err = c.SetUserMaxPrice(d("100"))
	assert.ErrorIs(t, err, ErrInvertedRange)

	st, _ = c.State()
	assert.Equal(t, int32(-19392), st.UserMinTick)
	assert.Equal(t, int32(-17408), st.UserMaxTick)
}

func TestController_ResetAndFullRange(t *testing.T) {
	c := loaded(t)

	st, err := c.FullRange()
	require.NoError(t, err)
	assert.Equal(t, int32(-443584), st.UserMinTick)
	assert.Equal(t, int32(443584), st.UserMaxTick)
	assert.Equal(t, initialState.Chart(), st.Chart())

	st, err = c.Reset()
	require.NoError(t, err)
	assert.Equal(t, initialState, st)

	t.Run("abandons a drag", func(t *testing.T) {
		for _, apply := range []func() (domain.RangeState, error){c.Reset, c.FullRange} {
			require.NoError(t, c.Drag(PriceRange{Min: d("140"), Max: d("145")}))
			require.Equal(t, PhaseDragging, c.Phase())

			_, err := apply()
			require.NoError(t, err)
			assert.Equal(t, PhaseInitialized, c.Phase())
			_, dragging := c.DragView()
			assert.False(t, dragging)
		}
	})
}

func TestController_UserPricesAndPercent(t *testing.T) {
	c := loaded(t)

	prices, err := c.UserPrices()
	require.NoError(t, err)
	assert.True(t, prices.Min.LessThan(d("135")))
	assert.True(t, prices.Max.LessThanOrEqual(d("165")))

	pct, err := c.PercentFromCurrent(-18944)
	require.NoError(t, err)
	assert.Equal(t, "0.28", pct.String())

	pct, err = c.PercentFromCurrent(-20032)
	require.NoError(t, err)
	assert.Equal(t, "-10.06", pct.String())
}

func TestController_Invariants(t *testing.T) {
	c := loaded(t)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 300; i++ {
		switch rng.Intn(7) {
		case 0:
			c.StepUserMin(rng.Intn(21) - 10)
		case 1:
			c.StepUserMax(rng.Intn(21) - 10)
		case 2:
			lo := decimal.NewFromInt(int64(100 + rng.Intn(100)))
			hi := decimal.NewFromInt(int64(100 + rng.Intn(100)))
			c.Commit(PriceRange{Min: lo, Max: hi})
		case 3:
			c.Load(solUSDC(decimal.NewFromInt(int64(120 + rng.Intn(60))).String()))
		case 4:
			c.Reset()
		case 5:
			c.Drag(PriceRange{Min: decimal.NewFromInt(int64(rng.Intn(300))), Max: decimal.NewFromInt(int64(rng.Intn(300)))})
		case 6:
			c.CommitDrag()
		}

		st, err := c.State()
		require.NoError(t, err)
		require.LessOrEqual(t, st.UserMinTick, st.UserMaxTick, "step %d", i)
		require.LessOrEqual(t, st.ChartMinTick, st.ChartMaxTick, "step %d", i)
		for _, tick := range []int32{st.UserMinTick, st.UserMaxTick, st.ChartMinTick, st.ChartMaxTick} {
			require.Zero(t, tick%64, "step %d", i)
		}
	}
}
