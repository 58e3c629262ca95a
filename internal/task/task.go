// Package task provides cancellable asynchronous handles used to drive and
// abort long-running simulations.
package task

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Task pairs a pending result with an idempotent cancellation signal.
type Task[T any] struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cancelled atomic.Bool
	done      chan struct{}

	result T
	err    error
}

// Go starts fn on its own goroutine and returns a handle to it immediately.
// fn receives a context that is done once Cancel is called or parent ends.
func Go[T any](parent context.Context, fn func(ctx context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(parent)
	t := &Task[T]{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		defer cancel()
		t.result, t.err = fn(ctx)
	}()

	return t
}

// Cancel signals the task to stop. Calling it more than once, or after the
// task finished, is a no-op.
func (t *Task[T]) Cancel() {
	select {
	case <-t.done:
		return
	default:
	}
	if t.cancelled.CompareAndSwap(false, true) {
		t.cancel()
	}
}

// Cancelled reports whether Cancel took effect before the task finished.
func (t *Task[T]) Cancelled() bool {
	return t.cancelled.Load()
}

// Done is closed once the task has returned.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Context returns the task's context.
func (t *Task[T]) Context() context.Context {
	return t.ctx
}

// Wait blocks until the task returns and yields its result.
func (t *Task[T]) Wait() (T, error) {
	<-t.done
	return t.result, t.err
}

// Gate is a repeatable signal: every Open releases the current waiters and
// re-arms the gate for the next round. Manual step-advance pacing uses it.
type Gate struct {
	mu sync.Mutex
	ch chan struct{}
}

// NewGate returns a closed (armed) gate.
func NewGate() *Gate {
	return &Gate{ch: make(chan struct{})}
}

// Open releases everyone currently waiting.
func (g *Gate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.ch)
	g.ch = make(chan struct{})
}

// Wait blocks until the next Open or until ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.ch
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sleep waits for d or until ctx is done. Non-positive durations return
// immediately.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
