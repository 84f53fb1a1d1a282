package telemetry

import (
	"bytes"
	"sync"
	"time"
)

const (
	// DefaultBatchSize is the buffered size that forces a flush.
	DefaultBatchSize = 4096
	// DefaultBatchDelay is the longest time output waits in the buffer.
	DefaultBatchDelay = 50 * time.Millisecond
)

// batcher coalesces small writes of a job's output. A timer is armed by the
// first write after a flush, so an idle job costs nothing.
type batcher struct {
	size  int
	delay time.Duration
	flush func([]byte)

	mu     sync.Mutex
	buf    bytes.Buffer
	timer  *time.Timer
	closed bool
}

func newBatcher(size int, delay time.Duration, flush func([]byte)) *batcher {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if delay <= 0 {
		delay = DefaultBatchDelay
	}
	return &batcher{size: size, delay: delay, flush: flush}
}

// Write buffers p. Writes after Close are dropped but reported as written so
// late output never fails a build.
func (b *batcher) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return len(p), nil
	}

	b.buf.Write(p)
	switch {
	case b.buf.Len() >= b.size:
		b.flushLocked()
	case b.timer == nil:
		b.timer = time.AfterFunc(b.delay, b.onTimer)
	}
	return len(p), nil
}

// Close flushes what is left and stops the timer.
func (b *batcher) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.flushLocked()
}

func (b *batcher) onTimer() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timer = nil
	if !b.closed {
		b.flushLocked()
	}
}

// flushLocked must be called with mu held.
func (b *batcher) flushLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if b.buf.Len() == 0 {
		return
	}
	data := bytes.Clone(b.buf.Bytes())
	b.buf.Reset()
	b.flush(data)
}
