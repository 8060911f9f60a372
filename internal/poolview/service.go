// Package poolview composes the pool reader, liquidity fetcher, histogram
// builder and range controller into the single view a front-end polls.
package poolview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"whirlpool-range-lab/internal/domain"
	"whirlpool-range-lab/internal/histogram"
	"whirlpool-range-lab/internal/liquidity"
	"whirlpool-range-lab/internal/observability"
	"whirlpool-range-lab/internal/rangestate"
	"whirlpool-range-lab/internal/solana"
	"whirlpool-range-lab/internal/storage"
)

var (
	// ErrStale is returned when a histogram result was superseded by a
	// newer request or a chart range change before it arrived.
	ErrStale = errors.New("poolview: stale histogram result")

	// ErrNoSnapshot is returned before the first successful pool read.
	ErrNoSnapshot = errors.New("poolview: no pool snapshot")

	// ErrNoHistogram is returned before the first successful histogram.
	ErrNoHistogram = errors.New("poolview: no histogram")

	ErrUnknownBound = errors.New("poolview: bound must be min or max")
)

var tracer = otel.Tracer("whirlpool-range-lab/poolview")

// DefaultSampleTTL is how long fetched tick samples serve Sync before the
// ledger is read again. Half the default refresh interval, so every poll
// refetches.
const DefaultSampleTTL = 5 * time.Second

// PoolSource reads the current pool snapshot.
type PoolSource interface {
	ReadPool(ctx context.Context, address string) (*domain.PoolSnapshot, error)
}

// LiquiditySource reads tick samples for a tick range.
type LiquiditySource interface {
	Fetch(ctx context.Context, req liquidity.Request) ([]domain.TickSample, error)
}

// AccountSubscriber streams changes of one account.
type AccountSubscriber interface {
	SubscribeAccount(ctx context.Context, address string) (<-chan solana.AccountNotification, error)
}

// Bound selects one side of the user range.
type Bound string

const (
	BoundMin Bound = "min"
	BoundMax Bound = "max"
)

// Options configures a Service.
type Options struct {
	PoolAddress string
	Pools       PoolSource
	Liquidity   LiquiditySource
	Controller  *rangestate.Controller
	Snapshots   storage.SnapshotStore
	Samples     storage.SampleStore
	// Subscriber is optional; when set Run refreshes on pool account updates.
	Subscriber  AccountSubscriber
	CommitDelay time.Duration
	// SampleTTL bounds the age of samples Sync may reuse.
	SampleTTL   time.Duration
	Logger      *zap.Logger
	Now         func() time.Time
}

// Service owns the snapshot, range state and histogram of one pool.
type Service struct {
	address    string
	pools      PoolSource
	liq        LiquiditySource
	ctrl       *rangestate.Controller
	snapshots  storage.SnapshotStore
	samples    storage.SampleStore
	subscriber AccountSubscriber
	debouncer  *rangestate.Debouncer
	logger     *zap.Logger
	now        func() time.Time
	sampleTTL  time.Duration

	mu            sync.RWMutex
	snapshotErr   error
	bins          []domain.HistogramBin
	binsChart     domain.TickRange
	binsFetchedAt int64
	histErr       error
	gen           uint64
	// poolChangedAt is when the last snapshot that differed from its
	// predecessor was stored, in Unix milliseconds.
	poolChangedAt int64
}

// New creates a Service.
func New(opts Options) (*Service, error) {
	if opts.PoolAddress == "" {
		return nil, errors.New("poolview: pool address is required")
	}
	if opts.Pools == nil || opts.Liquidity == nil || opts.Controller == nil {
		return nil, errors.New("poolview: pool source, liquidity source and controller are required")
	}
	if opts.Snapshots == nil || opts.Samples == nil {
		return nil, errors.New("poolview: snapshot and sample stores are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.SampleTTL
	if ttl <= 0 {
		ttl = DefaultSampleTTL
	}

	s := &Service{
		address:    opts.PoolAddress,
		pools:      opts.Pools,
		liq:        opts.Liquidity,
		ctrl:       opts.Controller,
		snapshots:  opts.Snapshots,
		samples:    opts.Samples,
		subscriber: opts.Subscriber,
		logger:     logger.With(zap.String("pool", opts.PoolAddress)),
		now:        now,
		sampleTTL:  ttl,
	}
	s.debouncer = rangestate.NewDebouncer(opts.Controller, opts.CommitDelay, s.onDebouncedCommit)
	return s, nil
}

// Close cancels any pending debounced commit.
func (s *Service) Close() {
	s.debouncer.Stop()
}

// Refresh re-reads the pool snapshot and feeds the price to the range
// controller. Reports whether the chart range moved. A failed read keeps
// the previous snapshot available.
func (s *Service) Refresh(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "Service.Refresh")
	defer span.End()

	changed, err := s.refresh(ctx)

	s.mu.Lock()
	s.snapshotErr = err
	s.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.RecordRefresh(err, 0)
		s.logger.Error("pool refresh failed", zap.Error(err))
		return false, err
	}
	observability.RecordRefresh(nil, float64(s.now().Unix()))
	span.SetAttributes(attribute.Bool("chart_changed", changed))
	return changed, nil
}

func (s *Service) refresh(ctx context.Context) (bool, error) {
	snap, err := s.pools.ReadPool(ctx, s.address)
	if err != nil {
		return false, fmt.Errorf("read pool: %w", err)
	}
	price, err := decimal.NewFromString(snap.CurrentPrice)
	if err != nil {
		return false, fmt.Errorf("parse pool price %q: %w", snap.CurrentPrice, err)
	}

	changed, err := s.ctrl.Load(rangestate.Pool{
		Price:       price,
		DecimalsA:   snap.TokenA.Decimals,
		DecimalsB:   snap.TokenB.Decimals,
		TickSpacing: snap.TickSpacing,
	})
	if err != nil {
		return false, fmt.Errorf("load range state: %w", err)
	}
	prev, err := s.snapshots.Latest(ctx, s.address)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("load previous snapshot: %w", err)
	}
	if err := s.snapshots.Put(ctx, snap); err != nil {
		return false, fmt.Errorf("store snapshot: %w", err)
	}
	if prev == nil || poolStateChanged(prev, snap) {
		s.mu.Lock()
		s.poolChangedAt = s.now().UnixMilli()
		s.mu.Unlock()
	}
	return changed, nil
}

// poolStateChanged reports whether anything that shapes the liquidity
// curve differs between two snapshots of the same pool.
func poolStateChanged(a, b *domain.PoolSnapshot) bool {
	return a.CurrentPrice != b.CurrentPrice ||
		a.SqrtPriceX64 != b.SqrtPriceX64 ||
		a.TickCurrentIndex != b.TickCurrentIndex ||
		a.Liquidity != b.Liquidity ||
		a.TickSpacing != b.TickSpacing
}

// RefreshHistogram fetches liquidity for the current chart range and
// rebuilds the bins. Only the most recent request may publish its result;
// an older one, or one whose chart range no longer matches, returns
// ErrStale and leaves the view untouched.
func (s *Service) RefreshHistogram(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Service.RefreshHistogram")
	defer span.End()

	st, err := s.ctrl.State()
	if err != nil {
		return err
	}
	pool := s.ctrl.Pool()
	chart := st.Chart()
	fetchedAt := s.now().UnixMilli()

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	span.SetAttributes(
		attribute.Int("chart_min", int(chart.Min)),
		attribute.Int("chart_max", int(chart.Max)),
	)

	samples, fetchErr := s.liq.Fetch(ctx, liquidity.Request{
		Pool:        s.address,
		MinTick:     chart.Min,
		MaxTick:     chart.Max,
		TickSpacing: pool.TickSpacing,
		DecimalsA:   pool.DecimalsA,
		DecimalsB:   pool.DecimalsB,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStaleLocked(gen, chart) {
		observability.RecordStaleDiscarded()
		s.logger.Debug("discarding stale histogram result",
			zap.Uint64("generation", gen),
			zap.Int32("chart_min", chart.Min),
			zap.Int32("chart_max", chart.Max))
		return ErrStale
	}

	if fetchErr != nil {
		s.histErr = fetchErr
		span.RecordError(fetchErr)
		span.SetStatus(codes.Error, fetchErr.Error())
		s.logger.Error("histogram fetch failed", zap.Error(fetchErr))
		return fetchErr
	}

	if err := s.samples.Put(ctx, &storage.SampleSet{
		Pool:      s.address,
		Chart:     chart,
		Samples:   samples,
		FetchedAt: fetchedAt,
	}); err != nil {
		s.histErr = err
		return fmt.Errorf("store samples: %w", err)
	}

	s.buildLocked(samples, chart, fetchedAt)
	return nil
}

func (s *Service) isStaleLocked(gen uint64, chart domain.TickRange) bool {
	if gen != s.gen {
		return true
	}
	st, err := s.ctrl.State()
	return err != nil || st.Chart() != chart
}

// freshLocked reports whether samples fetched at fetchedAt still describe
// the pool: fetched after its last state change and within the TTL.
func (s *Service) freshLocked(fetchedAt int64) bool {
	return fetchedAt >= s.poolChangedAt &&
		s.now().UnixMilli()-fetchedAt < s.sampleTTL.Milliseconds()
}

func (s *Service) buildLocked(samples []domain.TickSample, chart domain.TickRange, fetchedAt int64) {
	start := s.now()
	user := domain.TickRange{}
	if st, err := s.ctrl.State(); err == nil {
		user = st.User()
	}
	s.bins = histogram.Build(histogram.Tag(samples, user))
	s.binsChart = chart
	s.binsFetchedAt = fetchedAt
	s.histErr = nil
	observability.RecordHistogramBuild(s.now().Sub(start).Seconds(), len(s.bins))
}

// Sync refreshes the snapshot and then the histogram, unless the current
// bins cover the chart range and are still fresh. Samples go stale when
// the pool state changes or they outlive the sample TTL. Fresh cached
// samples for the chart range are reused without a ledger read.
func (s *Service) Sync(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Service.Sync")
	defer span.End()

	if _, err := s.Refresh(ctx); err != nil {
		return err
	}

	st, err := s.ctrl.State()
	if err != nil {
		return err
	}
	chart := st.Chart()

	s.mu.RLock()
	current := s.bins != nil && s.binsChart == chart && s.histErr == nil && s.freshLocked(s.binsFetchedAt)
	s.mu.RUnlock()
	if current {
		return nil
	}

	if set, err := s.samples.GetByChart(ctx, s.address, chart); err == nil {
		s.mu.Lock()
		reused := s.freshLocked(set.FetchedAt)
		if reused {
			s.gen++
			s.buildLocked(set.Samples, chart, set.FetchedAt)
		}
		s.mu.Unlock()
		if reused {
			return nil
		}
	}

	if err := s.RefreshHistogram(ctx); err != nil && !errors.Is(err, ErrStale) {
		return err
	}
	return nil
}

// Snapshot returns the last stored snapshot. It stays available after a
// failed refresh; see Status for the failure.
func (s *Service) Snapshot(ctx context.Context) (*domain.PoolSnapshot, error) {
	snap, err := s.snapshots.Latest(ctx, s.address)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoSnapshot
	}
	return snap, err
}

// Histogram returns a copy of the current bins.
func (s *Service) Histogram() ([]domain.HistogramBin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bins == nil {
		return nil, ErrNoHistogram
	}
	out := make([]domain.HistogramBin, len(s.bins))
	copy(out, s.bins)
	return out, nil
}

// Status carries the most recent failure of each half of the view. The
// two are independent: a histogram failure leaves the snapshot usable.
type Status struct {
	SnapshotError  string `json:"snapshotError,omitempty"`
	HistogramError string `json:"histogramError,omitempty"`
}

// Status returns the most recent refresh and fetch errors.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st Status
	if s.snapshotErr != nil {
		st.SnapshotError = s.snapshotErr.Error()
	}
	if s.histErr != nil {
		st.HistogramError = s.histErr.Error()
	}
	return st
}

// RangeView is the range state with derived prices and percentages.
type RangeView struct {
	State    domain.RangeState      `json:"state"`
	Phase    string                 `json:"phase"`
	MinPrice string                 `json:"minPrice"`
	MaxPrice string                 `json:"maxPrice"`
	MinPct   string                 `json:"minPct"`
	MaxPct   string                 `json:"maxPct"`
	Drag     *rangestate.PriceRange `json:"drag,omitempty"`
}

// Range returns the current range view.
func (s *Service) Range() (RangeView, error) {
	st, err := s.ctrl.State()
	if err != nil {
		return RangeView{}, err
	}
	prices, err := s.ctrl.UserPrices()
	if err != nil {
		return RangeView{}, err
	}
	minPct, err := s.ctrl.PercentFromCurrent(st.UserMinTick)
	if err != nil {
		return RangeView{}, err
	}
	maxPct, err := s.ctrl.PercentFromCurrent(st.UserMaxTick)
	if err != nil {
		return RangeView{}, err
	}

	view := RangeView{
		State:    st,
		Phase:    s.ctrl.Phase().String(),
		MinPrice: prices.Min.StringFixed(histogram.PricePlaces),
		MaxPrice: prices.Max.StringFixed(histogram.PricePlaces),
		MinPct:   minPct.StringFixed(2),
		MaxPct:   maxPct.StringFixed(2),
	}
	if drag, ok := s.ctrl.DragView(); ok {
		view.Drag = &drag
	}
	return view, nil
}

// Commit writes a user range given as prices.
func (s *Service) Commit(r rangestate.PriceRange) (domain.RangeState, error) {
	s.debouncer.Stop()
	return s.afterRangeChange(s.ctrl.Commit(r))
}

// Drag records an in-progress user range; it commits after the quiet
// period unless superseded.
func (s *Service) Drag(r rangestate.PriceRange) error {
	return s.debouncer.Push(r)
}

// FlushDrag commits a pending drag immediately.
func (s *Service) FlushDrag() {
	s.debouncer.Flush()
}

// Step moves one bound of the user range by steps tick spacings.
func (s *Service) Step(bound Bound, steps int) (domain.RangeState, error) {
	switch bound {
	case BoundMin:
		return s.afterRangeChange(s.ctrl.StepUserMin(steps))
	case BoundMax:
		return s.afterRangeChange(s.ctrl.StepUserMax(steps))
	}
	return domain.RangeState{}, fmt.Errorf("%w: %q", ErrUnknownBound, bound)
}

// SetBoundPrice moves one bound of the user range to price.
func (s *Service) SetBoundPrice(bound Bound, price decimal.Decimal) (domain.RangeState, error) {
	switch bound {
	case BoundMin:
		return s.afterRangeChange(s.ctrl.SetUserMinPrice(price))
	case BoundMax:
		return s.afterRangeChange(s.ctrl.SetUserMaxPrice(price))
	}
	return domain.RangeState{}, fmt.Errorf("%w: %q", ErrUnknownBound, bound)
}

// Reset restores the default user range around the current price.
func (s *Service) Reset() (domain.RangeState, error) {
	s.debouncer.Stop()
	return s.afterRangeChange(s.ctrl.Reset())
}

// FullRange sets the user range to the full initializable range.
func (s *Service) FullRange() (domain.RangeState, error) {
	s.debouncer.Stop()
	return s.afterRangeChange(s.ctrl.FullRange())
}

func (s *Service) onDebouncedCommit(st domain.RangeState, err error) {
	if _, err := s.afterRangeChange(st, err); err != nil {
		s.logger.Debug("debounced range commit rejected", zap.Error(err))
	}
}

// afterRangeChange records the outcome and re-tags the bins in place.
// The chart range is untouched by user range changes, so no fetch.
func (s *Service) afterRangeChange(st domain.RangeState, err error) (domain.RangeState, error) {
	if err != nil {
		observability.RecordRangeCommit("rejected")
		return st, err
	}
	observability.RecordRangeCommit("committed")

	s.mu.Lock()
	if s.bins != nil {
		s.bins = histogram.TagBins(s.bins, st.User())
	}
	s.mu.Unlock()
	return st, nil
}

// Run syncs immediately and then on every interval tick and every pool
// account notification until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	if err := s.Sync(ctx); err != nil {
		s.logger.Warn("initial sync failed", zap.Error(err))
	}

	var updates <-chan solana.AccountNotification
	if s.subscriber != nil {
		ch, err := s.subscriber.SubscribeAccount(ctx, s.address)
		if err != nil {
			s.logger.Warn("pool subscription failed, polling only", zap.Error(err))
		} else {
			updates = ch
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sync(ctx); err != nil {
				s.logger.Warn("sync failed", zap.Error(err))
			}
		case notif, ok := <-updates:
			if !ok {
				s.logger.Warn("pool subscription closed, polling only")
				updates = nil
				continue
			}
			observability.RecordAccountUpdate()
			slot := notif.Slot
			// Collapse a burst of notifications into one sync.
		drain:
			for {
				select {
				case more, ok := <-updates:
					if !ok {
						updates = nil
						break drain
					}
					observability.RecordAccountUpdate()
					slot = more.Slot
				default:
					break drain
				}
			}
			s.logger.Debug("pool account updated", zap.Int64("slot", slot))
			if err := s.Sync(ctx); err != nil {
				s.logger.Warn("sync failed", zap.Error(err))
			}
		}
	}
}
