package query

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period applied to listing mutations.
const DefaultDebounce = 500 * time.Millisecond

// Debouncer releases a payload once no Trigger has happened for delay.
// Each Trigger restarts the quiet period and replaces the pending payload.
type Debouncer[T any] struct {
	clock Clock
	delay time.Duration
	fire  func(T)

	mu         sync.Mutex
	timer      Timer
	generation uint64
	pending    T
	stopped    bool
}

// NewDebouncer returns a Debouncer calling fire on the clock's timer goroutine.
// A nil clock uses RealClock.
func NewDebouncer[T any](clock Clock, delay time.Duration, fire func(T)) *Debouncer[T] {
	if clock == nil {
		clock = RealClock()
	}
	if delay < 0 {
		delay = 0
	}
	return &Debouncer[T]{clock: clock, delay: delay, fire: fire}
}

// Trigger (re)starts the quiet period with v as the payload. No-op after Stop.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.generation++
	gen := d.generation
	d.pending = v
	d.timer = d.clock.AfterFunc(d.delay, func() { d.expire(gen) })
}

// expire runs fire unless a later Trigger or Stop superseded gen. A timer
// whose Stop lost the race still lands here and is discarded.
func (d *Debouncer[T]) expire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.generation {
		d.mu.Unlock()
		return
	}
	v := d.pending
	var zero T
	d.pending = zero
	d.timer = nil
	d.mu.Unlock()

	d.fire(v)
}

// Pending reports whether a fire is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil && !d.stopped
}

// Cancel drops the pending fire, if any. Later Triggers still work.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.generation++
	var zero T
	d.pending = zero
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stop cancels the pending fire, if any, and disables the debouncer.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.generation++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
