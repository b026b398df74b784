// Package debounce provides a cancellable, reschedulable timer for fetch-on-change.
package debounce

import (
	"sync"
	"time"
)

// Timer runs the most recently scheduled function once the input has been
// quiet for the configured delay. Superseded functions never run.
type Timer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// New creates a debounce timer with the given quiet period
func New(delay time.Duration) *Timer {
	return &Timer{delay: delay}
}

// Delay returns the quiet period
func (t *Timer) Delay() time.Duration {
	return t.delay
}

// Schedule cancels any pending call and arms fn to run after the delay
func (t *Timer) Schedule(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen

	t.timer = time.AfterFunc(t.delay, func() {
		t.mu.Lock()
		// A Stop/Schedule that raced with the timer firing bumps gen
		if gen != t.gen {
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.mu.Unlock()
		fn()
	})
}

// Stop cancels the pending call, if any
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

// Pending reports whether a call is armed and hasn't fired yet
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}
