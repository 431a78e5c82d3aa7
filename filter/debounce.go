package filter

import (
	"sync"
	"time"
)

// DefaultDebounce is how long the query must stay unchanged before it is
// used for matching.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer delays fn until Trigger has not been called for interval.
// A new Trigger cancels and restarts the pending timer, so calls never
// pile up.
type Debouncer struct {
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
	stopped bool
}

// NewDebouncer creates a debouncer. A non-positive interval selects
// DefaultDebounce.
func NewDebouncer(interval time.Duration, fn func()) *Debouncer {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	return &Debouncer{interval: interval, fn: fn}
}

// Trigger (re)starts the timer.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	// gen guards against a timer that already fired and is waiting on mu.
	d.gen++
	gen := d.gen
	d.pending = true
	d.timer = time.AfterFunc(d.interval, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.mu.Unlock()

	d.fn()
}

// Cancel drops a pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.pending = false
}

// Flush runs a pending call immediately on the caller's goroutine.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	d.cancelLocked()
	d.mu.Unlock()

	d.fn()
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop cancels any pending call; later Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}
