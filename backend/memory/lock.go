package memory

import (
	"context"
	"time"
)

// Locker is an in-process mutual-exclusion service backed by a channel.
// Safe for concurrent use.
type Locker struct {
	ch chan struct{}
}

// NewLocker creates an unheld Locker.
func NewLocker() *Locker {
	return &Locker{ch: make(chan struct{}, 1)}
}

// TryAcquire attempts to take the lock, waiting at most timeout.
func (l *Locker) TryAcquire(ctx context.Context, timeout time.Duration) (bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case l.ch <- struct{}{}:
		return true, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Release gives the lock back. Releasing an unheld lock is a no-op.
func (l *Locker) Release(_ context.Context) error {
	select {
	case <-l.ch:
	default:
	}
	return nil
}

// ReleaseAll clears the lock regardless of holder.
func (l *Locker) ReleaseAll(ctx context.Context) error {
	return l.Release(ctx)
}
