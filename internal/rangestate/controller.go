// Package rangestate owns the chart and user tick ranges of a pool view
// and the transitions between them.
//
// The chart range always follows the pool price. The user range is set
// once from the price and afterwards changes only on an explicit commit,
// step, reset or full-range request. A drag produces an ephemeral price
// pair that is not written to the state until it is committed.
package rangestate

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"whirlpool-range-lab/internal/domain"
	"whirlpool-range-lab/internal/tickmath"
)

var (
	ErrNotInitialized = errors.New("rangestate: pool not loaded")
	ErrInvertedRange  = errors.New("rangestate: min exceeds max")
)

// Config holds the range derivation percentages.
type Config struct {
	// UserRangePct sets the initial user range to price*(1±pct).
	UserRangePct decimal.Decimal
	// ChartMarginPct widens the user-range prices by this fraction on
	// each side to form the chart range.
	ChartMarginPct decimal.Decimal
}

// DefaultConfig returns ±10% user range and a further 10% chart margin,
// so the chart spans roughly 0.81x to 1.21x of the price.
func DefaultConfig() Config {
	return Config{
		UserRangePct:   decimal.NewFromFloat(0.10),
		ChartMarginPct: decimal.NewFromFloat(0.10),
	}
}

// Phase is the controller lifecycle state.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseInitialized
	PhaseDragging
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitialized:
		return "initialized"
	case PhaseDragging:
		return "dragging"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Pool is the subset of pool state the ranges derive from.
type Pool struct {
	Price       decimal.Decimal
	DecimalsA   int
	DecimalsB   int
	TickSpacing int32
}

func (p Pool) sameMarket(o Pool) bool {
	return p.DecimalsA == o.DecimalsA && p.DecimalsB == o.DecimalsB && p.TickSpacing == o.TickSpacing
}

// PriceRange is a min/max price pair.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Controller serializes all range mutations.
type Controller struct {
	mu    sync.RWMutex
	cfg   Config
	pool  Pool
	state domain.RangeState
	phase Phase
	drag  PriceRange
}

// New creates an uninitialized controller.
func New(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// Load applies a pool snapshot. The first load sets both ranges; later
// loads recompute only the chart range. A change of decimals or tick
// spacing resets the user range as well. Reports whether the chart range
// changed.
func (c *Controller) Load(pool Pool) (bool, error) {
	if !pool.Price.IsPositive() {
		return false, fmt.Errorf("%w: %s", tickmath.ErrInvalidPrice, pool.Price)
	}
	if err := tickmath.CheckTickSpacing(pool.TickSpacing); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	chart, err := c.chartRange(pool)
	if err != nil {
		return false, err
	}

	if c.phase == PhaseUninitialized || !c.pool.sameMarket(pool) {
		user, err := c.userRange(pool)
		if err != nil {
			return false, err
		}
		c.pool = pool
		c.state = domain.RangeState{
			ChartMinTick: chart.Min,
			ChartMaxTick: chart.Max,
			UserMinTick:  user.Min,
			UserMaxTick:  user.Max,
		}
		c.phase = PhaseInitialized
		return true, nil
	}

	prev := c.state.Chart()
	c.pool = pool
	c.state.ChartMinTick = chart.Min
	c.state.ChartMaxTick = chart.Max
	return prev != chart, nil
}

// State returns the current ranges.
func (c *Controller) State() (domain.RangeState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.phase == PhaseUninitialized {
		return domain.RangeState{}, ErrNotInitialized
	}
	return c.state, nil
}

// Phase returns the lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// Pool returns the last loaded pool.
func (c *Controller) Pool() Pool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pool
}

// Drag records an in-progress user range. Any pair is accepted; nothing
// is validated or written until CommitDrag.
func (c *Controller) Drag(r PriceRange) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseUninitialized {
		return ErrNotInitialized
	}
	c.drag = r
	c.phase = PhaseDragging
	return nil
}

// DragView returns the in-progress pair while dragging.
func (c *Controller) DragView() (PriceRange, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.drag, c.phase == PhaseDragging
}

// CommitDrag converts the in-progress pair to ticks and writes it to the
// user range. The drag ends even if the pair is rejected. Without a drag
// in progress it returns the current state unchanged.
func (c *Controller) CommitDrag() (domain.RangeState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.phase {
	case PhaseUninitialized:
		return domain.RangeState{}, ErrNotInitialized
	case PhaseInitialized:
		return c.state, nil
	}
	r := c.drag
	c.phase = PhaseInitialized
	c.drag = PriceRange{}
	return c.commitLocked(r)
}

// Commit writes a user range given as prices, ending any drag.
func (c *Controller) Commit(r PriceRange) (domain.RangeState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseUninitialized {
		return domain.RangeState{}, ErrNotInitialized
	}
	c.phase = PhaseInitialized
	c.drag = PriceRange{}
	return c.commitLocked(r)
}

func (c *Controller) commitLocked(r PriceRange) (domain.RangeState, error) {
	if r.Min.GreaterThan(r.Max) {
		return c.state, fmt.Errorf("%w: %s > %s", ErrInvertedRange, r.Min, r.Max)
	}
	lo, err := c.tickForPrice(r.Min)
	if err != nil {
		return c.state, err
	}
	hi, err := c.tickForPrice(r.Max)
	if err != nil {
		return c.state, err
	}
	return c.setUserLocked(lo, hi)
}

// SetUserMinPrice moves the lower bound to price, snapped down.
func (c *Controller) SetUserMinPrice(price decimal.Decimal) (domain.RangeState, error) {
	return c.update(func() (int32, int32, error) {
		tick, err := c.tickForPrice(price)
		return tick, c.state.UserMaxTick, err
	})
}

// SetUserMaxPrice moves the upper bound to price, snapped down.
func (c *Controller) SetUserMaxPrice(price decimal.Decimal) (domain.RangeState, error) {
	return c.update(func() (int32, int32, error) {
		tick, err := c.tickForPrice(price)
		return c.state.UserMinTick, tick, err
	})
}

// StepUserMin moves the lower bound by steps tick spacings.
func (c *Controller) StepUserMin(steps int) (domain.RangeState, error) {
	return c.update(func() (int32, int32, error) {
		tick, err := stepTick(c.state.UserMinTick, steps, c.pool.TickSpacing)
		return tick, c.state.UserMaxTick, err
	})
}

// StepUserMax moves the upper bound by steps tick spacings.
func (c *Controller) StepUserMax(steps int) (domain.RangeState, error) {
	return c.update(func() (int32, int32, error) {
		tick, err := stepTick(c.state.UserMaxTick, steps, c.pool.TickSpacing)
		return c.state.UserMinTick, tick, err
	})
}

// IncrementUserMin moves the lower bound up one tick spacing.
func (c *Controller) IncrementUserMin() (domain.RangeState, error) { return c.StepUserMin(1) }

// DecrementUserMin moves the lower bound down one tick spacing.
func (c *Controller) DecrementUserMin() (domain.RangeState, error) { return c.StepUserMin(-1) }

// IncrementUserMax moves the upper bound up one tick spacing.
func (c *Controller) IncrementUserMax() (domain.RangeState, error) { return c.StepUserMax(1) }

// DecrementUserMax moves the upper bound down one tick spacing.
func (c *Controller) DecrementUserMax() (domain.RangeState, error) { return c.StepUserMax(-1) }

// Reset recomputes the user range from the current price. A drag in
// progress is abandoned.
func (c *Controller) Reset() (domain.RangeState, error) {
	return c.replace(func() (int32, int32, error) {
		r, err := c.userRange(c.pool)
		return r.Min, r.Max, err
	})
}

// FullRange sets the user range to the widest initializable interval. A
// drag in progress is abandoned.
func (c *Controller) FullRange() (domain.RangeState, error) {
	return c.replace(func() (int32, int32, error) {
		lo, hi := tickmath.FullRangeTicks(c.pool.TickSpacing)
		return lo, hi, nil
	})
}

// replace is update for transitions that supersede any drag.
func (c *Controller) replace(next func() (int32, int32, error)) (domain.RangeState, error) {
	return c.update(func() (int32, int32, error) {
		c.phase = PhaseInitialized
		c.drag = PriceRange{}
		return next()
	})
}

// update runs next under the lock and applies the resulting user range.
func (c *Controller) update(next func() (int32, int32, error)) (domain.RangeState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseUninitialized {
		return domain.RangeState{}, ErrNotInitialized
	}
	lo, hi, err := next()
	if err != nil {
		return c.state, err
	}
	return c.setUserLocked(lo, hi)
}

func (c *Controller) setUserLocked(lo, hi int32) (domain.RangeState, error) {
	minTick, maxTick := tickmath.FullRangeTicks(c.pool.TickSpacing)
	if lo < minTick || hi > maxTick {
		return c.state, fmt.Errorf("%w: [%d, %d]", tickmath.ErrTickOutOfBounds, lo, hi)
	}
	if lo > hi {
		return c.state, fmt.Errorf("%w: tick %d > %d", ErrInvertedRange, lo, hi)
	}
	c.state.UserMinTick = lo
	c.state.UserMaxTick = hi
	return c.state, nil
}

// UserPrices returns the prices at the user range bounds.
func (c *Controller) UserPrices() (PriceRange, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.phase == PhaseUninitialized {
		return PriceRange{}, ErrNotInitialized
	}
	lo, err := tickmath.TickToPrice(c.state.UserMinTick, c.pool.DecimalsA, c.pool.DecimalsB)
	if err != nil {
		return PriceRange{}, err
	}
	hi, err := tickmath.TickToPrice(c.state.UserMaxTick, c.pool.DecimalsA, c.pool.DecimalsB)
	if err != nil {
		return PriceRange{}, err
	}
	return PriceRange{Min: lo, Max: hi}, nil
}

// PercentFromCurrent returns how far the price at tick lies from the pool
// price, in percent rounded to two places.
func (c *Controller) PercentFromCurrent(tick int32) (decimal.Decimal, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.phase == PhaseUninitialized {
		return decimal.Zero, ErrNotInitialized
	}
	p, err := tickmath.TickToPrice(tick, c.pool.DecimalsA, c.pool.DecimalsB)
	if err != nil {
		return decimal.Zero, err
	}
	hundred := decimal.NewFromInt(100)
	return p.Div(c.pool.Price).Sub(decimal.NewFromInt(1)).Mul(hundred).Round(2), nil
}

func (c *Controller) userRange(pool Pool) (domain.TickRange, error) {
	one := decimal.NewFromInt(1)
	lo := pool.Price.Mul(one.Sub(c.cfg.UserRangePct))
	hi := pool.Price.Mul(one.Add(c.cfg.UserRangePct))
	return snapRange(pool, lo, hi)
}

func (c *Controller) chartRange(pool Pool) (domain.TickRange, error) {
	one := decimal.NewFromInt(1)
	lo := pool.Price.Mul(one.Sub(c.cfg.UserRangePct)).Mul(one.Sub(c.cfg.ChartMarginPct))
	hi := pool.Price.Mul(one.Add(c.cfg.UserRangePct)).Mul(one.Add(c.cfg.ChartMarginPct))
	return snapRange(pool, lo, hi)
}

func (c *Controller) tickForPrice(price decimal.Decimal) (int32, error) {
	return tickmath.PriceToInitializableTick(price, c.pool.DecimalsA, c.pool.DecimalsB, c.pool.TickSpacing)
}

func snapRange(pool Pool, lo, hi decimal.Decimal) (domain.TickRange, error) {
	minTick, err := tickmath.PriceToInitializableTick(lo, pool.DecimalsA, pool.DecimalsB, pool.TickSpacing)
	if err != nil {
		return domain.TickRange{}, err
	}
	maxTick, err := tickmath.PriceToInitializableTick(hi, pool.DecimalsA, pool.DecimalsB, pool.TickSpacing)
	if err != nil {
		return domain.TickRange{}, err
	}
	return domain.TickRange{Min: minTick, Max: maxTick}, nil
}

func stepTick(tick int32, steps int, spacing int32) (int32, error) {
	switch steps {
	case 1:
		return tickmath.NextInitializableTick(tick, spacing), nil
	case -1:
		return tickmath.PrevInitializableTick(tick, spacing), nil
	}
	t := int64(tick) + int64(steps)*int64(spacing)
	if t < int64(tickmath.MinTickIndex) || t > int64(tickmath.MaxTickIndex) {
		return 0, fmt.Errorf("%w: %d", tickmath.ErrTickOutOfBounds, t)
	}
	return int32(t), nil
}
