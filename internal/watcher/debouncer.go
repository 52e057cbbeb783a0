package watcher

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid touches into one firing per quiet window.
// Every Touch resets the timer; Fired delivers once the window elapses with
// no further touches.
type Debouncer struct {
	window time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	fired   chan struct{}
	stopped bool
}

// NewDebouncer creates a debouncer with the given quiet window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window: window,
		fired:  make(chan struct{}, 1),
	}
}

// Touch records activity and (re)starts the quiet window.
func (d *Debouncer) Touch() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	// Non-blocking: an undelivered firing already covers this burst.
	select {
	case d.fired <- struct{}{}:
	default:
	}
}

// Fired returns the channel that delivers one signal per quiet window.
func (d *Debouncer) Fired() <-chan struct{} {
	return d.fired
}

// Stop cancels any pending firing. Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
