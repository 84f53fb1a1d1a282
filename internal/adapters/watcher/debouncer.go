// Package watcher reports edits below workspace and local source directories
// so that build --watch can rebuild.
package watcher

import (
	"context"
	"slices"
	"sync"
	"time"
)

// DefaultDebounceWindow is how long the tree must stay quiet before a batch is released.
const DefaultDebounceWindow = 200 * time.Millisecond

// Debouncer coalesces bursts of changed paths into batches. Paths that change
// while the consumer is busy accumulate into the next batch.
type Debouncer struct {
	window time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
	ready   map[string]struct{}
	timer   *time.Timer
	notify  chan struct{}
}

// NewDebouncer creates a Debouncer that releases a batch once no path was
// added for window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]struct{}),
		ready:   make(map[string]struct{}),
		notify:  make(chan struct{}, 1),
	}
}

// Add records a changed path and restarts the quiet period.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[path] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.release)
}

// Flush releases pending paths without waiting for the quiet period.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.release()
}

// Next blocks until a batch is released and returns its paths sorted.
func (d *Debouncer) Next(ctx context.Context) ([]string, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-d.notify:
		}

		d.mu.Lock()
		paths := make([]string, 0, len(d.ready))
		for p := range d.ready {
			paths = append(paths, p)
		}
		clear(d.ready)
		d.mu.Unlock()

		if len(paths) > 0 {
			slices.Sort(paths)
			return paths, nil
		}
	}
}

func (d *Debouncer) release() {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	for p := range d.pending {
		d.ready[p] = struct{}{}
	}
	clear(d.pending)
	d.timer = nil
	d.mu.Unlock()

	select {
	case d.notify <- struct{}{}:
	default:
	}
}
