package orchestrator

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is the quiescence window between the last
// trigger and execution.
const DefaultDebounceWindow = 500 * time.Millisecond

// Debouncer coalesces rapid re-triggers into a single execution: each
// Schedule call replaces the previously scheduled function, and only
// the last one fires, after the window elapses with no new trigger.
type Debouncer struct {
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer. window <= 0 falls back to
// DefaultDebounceWindow.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{window: window}
}

// Schedule arranges for fn to run once the window elapses without
// another Schedule call. A pending earlier fn is dropped, never run.
// fn runs on its own goroutine.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, fn)
}

// Cancel drops any pending execution.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
