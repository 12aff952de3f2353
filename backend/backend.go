// Package backend defines the collaborator contracts the record store is
// built against: a flat row/column grid, a TTL cache, and a lock service.
//
// The store never talks to a concrete backend directly. Implementations live
// in subpackages ([github.com/jacentio/lattice/backend/memory] for in-process
// use and tests, [github.com/jacentio/lattice/backend/dynamo] for DynamoDB).
package backend

import (
	"context"
	"errors"
	"time"
)

// ErrNoSuchSheet is returned by Grid implementations when the named sheet
// does not exist.
var ErrNoSuchSheet = errors.New("lattice: no such sheet")

// Grid is a flat tabular substrate. Rows and columns are 1-based; row 1 is
// always the header row. Deleting a row shifts every subsequent row up by
// one, so any previously obtained row index is invalid after a delete on the
// same sheet.
//
// Cell values are one of string, float64, bool, time.Time, or nil.
type Grid interface {
	// EnsureSheet creates the named sheet if it does not already exist.
	EnsureSheet(ctx context.Context, sheet string) error

	// Headers returns the header row (row 1) of the sheet.
	Headers(ctx context.Context, sheet string) ([]any, error)

	// Append adds a row after the last occupied row.
	Append(ctx context.Context, sheet string, row []any) error

	// ReadRow returns the row at the given 1-based index.
	ReadRow(ctx context.Context, sheet string, index int) ([]any, error)

	// WriteRow overwrites the row at the given 1-based index.
	WriteRow(ctx context.Context, sheet string, index int, row []any) error

	// DeleteRow removes the row at the given 1-based index, shifting
	// subsequent rows up.
	DeleteRow(ctx context.Context, sheet string, index int) error

	// Match returns the 1-based index of the first row whose cell in the
	// given 1-based column equals value, or 0 if no row matches.
	Match(ctx context.Context, sheet string, column int, value any) (int, error)

	// Size returns the occupied row and column extents of the sheet.
	Size(ctx context.Context, sheet string) (rows, cols int, err error)
}

// Cache stores opaque serialized values with a time-to-live. Implementations
// may reject oversized values; callers treat Put failures as non-fatal.
type Cache interface {
	// Put stores value under key for at most ttl.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value stored under key, or ok=false if absent or
	// expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Remove deletes the value stored under key, if any.
	Remove(ctx context.Context, key string) error
}

// Locker is a mutual-exclusion service. One Locker guards one store; the
// store does not distinguish tables or records when locking.
type Locker interface {
	// TryAcquire attempts to take the lock, waiting at most timeout.
	// It returns false if the lock could not be taken in time.
	TryAcquire(ctx context.Context, timeout time.Duration) (bool, error)

	// Release gives the lock back. Releasing a lock that is not held is a
	// no-op.
	Release(ctx context.Context) error

	// ReleaseAll forcibly clears every lock held by this service. Intended
	// for cleanup after a crashed holder.
	ReleaseAll(ctx context.Context) error
}
