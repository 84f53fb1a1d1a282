package remote

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc"
)

// idleTimer fires once no call arrived for a whole timeout.
type idleTimer struct {
	mu       sync.Mutex
	timer    *time.Timer
	last     time.Time
	timeout  time.Duration
	done     chan struct{}
	doneOnce sync.Once
}

func newIdleTimer(timeout time.Duration) *idleTimer {
	t := &idleTimer{
		last:    time.Now(),
		timeout: timeout,
		done:    make(chan struct{}),
	}
	t.timer = time.AfterFunc(timeout, t.fire)
	return t
}

// touch restarts the timeout.
func (t *idleTimer) touch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = time.Now()
	t.timer.Reset(t.timeout)
}

// idle reports how long the last call is ago.
func (t *idleTimer) idle() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.last)
}

func (t *idleTimer) fire() {
	t.doneOnce.Do(func() { close(t.done) })
}

func (t *idleTimer) stop() {
	t.timer.Stop()
}

// interceptor counts every call as activity, including rejected ones.
func (t *idleTimer) interceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		t.touch()
		return handler(ctx, req)
	}
}
