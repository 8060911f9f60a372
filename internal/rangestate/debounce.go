package rangestate

import (
	"sync"
	"time"

	"whirlpool-range-lab/internal/domain"
)

// DefaultCommitDelay is the quiet period after the last drag update before
// the drag is committed.
const DefaultCommitDelay = 200 * time.Millisecond

// CommitFunc receives the outcome of a debounced commit.
type CommitFunc func(domain.RangeState, error)

// Debouncer feeds drag updates to a Controller and commits once updates
// stop arriving for the configured delay.
type Debouncer struct {
	ctrl     *Controller
	delay    time.Duration
	onCommit CommitFunc

	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

// NewDebouncer creates a Debouncer. onCommit may be nil.
func NewDebouncer(ctrl *Controller, delay time.Duration, onCommit CommitFunc) *Debouncer {
	if delay <= 0 {
		delay = DefaultCommitDelay
	}
	return &Debouncer{ctrl: ctrl, delay: delay, onCommit: onCommit}
}

// Push records a drag update and restarts the quiet period.
func (d *Debouncer) Push(r PriceRange) error {
	if err := d.ctrl.Drag(r); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
	return nil
}

// Flush commits a pending drag immediately.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	pending := d.timer != nil
	if pending {
		d.timer.Stop()
		d.timer = nil
		d.seq++
	}
	d.mu.Unlock()

	if pending {
		d.commit()
	}
}

// Stop cancels a pending commit without applying it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq {
		// Superseded by a later Push.
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.commit()
}

func (d *Debouncer) commit() {
	st, err := d.ctrl.CommitDrag()
	if d.onCommit != nil {
		d.onCommit(st, err)
	}
}
