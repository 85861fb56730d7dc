// Package limiter bounds how many tasks run concurrently.
package limiter

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter executes independently-submitted tasks while guaranteeing at
// most its configured capacity are in flight at once. Waiters are served
// in FIFO order. A task's own error passes through untouched and one
// task's failure never affects its siblings. Capacity is fixed for the
// limiter's lifetime; independent limiters may coexist.
type Limiter struct {
	sem *semaphore.Weighted
}

// New creates a limiter admitting at most n concurrent tasks. Values
// below 1 are raised to 1.
func New(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(n))}
}

// Do runs fn once a slot is free and returns fn's own result. It returns
// the context error instead if ctx is cancelled while waiting, in which
// case fn never runs.
func (l *Limiter) Do(ctx context.Context, fn func() error) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)
	return fn()
}
