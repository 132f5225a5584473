package utils

import (
	"sync"
	"time"
)

// Debouncer coalesces Trigger calls: fn runs once, window after the last
// Trigger of a burst. Every Trigger restarts the window.
type Debouncer struct {
	mu     sync.Mutex
	clock  Clock
	window time.Duration
	fn     func()
	timer  Timer
	gen    uint64
	closed bool
}

// NewDebouncer returns a Debouncer that calls fn after window of quiet.
func NewDebouncer(clock Clock, window time.Duration, fn func()) *Debouncer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Debouncer{clock: clock, window: window, fn: fn}
}

// Trigger schedules fn, replacing any call already pending.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.window, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// A timer that lost the race with Stop must not run a superseded burst.
	if d.closed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Stop cancels any pending call. Later Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
