package store

import (
	"context"
	"fmt"
	"time"
)

// The whole store is one critical section: the coarse lock does not
// distinguish tables or records. Writes try for a short window and fail
// fast; reads wait longer. The lock strategy is injectable via
// [backend.Locker] so a later implementation can shard by table or record
// without touching call sites.

// withWriteLock runs fn while holding the coarse lock, acquired with the
// write timeout. Release is unconditional and delayed by the configured
// grace period.
func (s *Store) withWriteLock(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.withLock(ctx, s.config.WriteLockTimeout, fn)
}

// withReadLock runs fn while holding the coarse lock, acquired with the
// read timeout.
func (s *Store) withReadLock(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.withLock(ctx, s.config.ReadLockTimeout, fn)
}

func (s *Store) withLock(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	ok, err := s.lock.TryAcquire(ctx, timeout)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrLockTimeout
	}
	defer s.release(ctx)

	return fn(ctx)
}

// release waits out the grace period and gives the lock back. A failed
// release is logged, not surfaced: the lease will lapse on its own.
func (s *Store) release(ctx context.Context) {
	if s.config.ReleaseGrace > 0 {
		time.Sleep(s.config.ReleaseGrace)
	}
	if err := s.lock.Release(ctx); err != nil {
		s.config.Logger.Warn("lock release failed", "error", err)
	}
}

// ReleaseAll forcibly clears the underlying lock service. Intended for
// cleanup after a crashed holder, not for normal operation.
func (s *Store) ReleaseAll(ctx context.Context) error {
	return s.lock.ReleaseAll(ctx)
}
