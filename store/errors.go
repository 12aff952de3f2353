package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no record with the requested id exists.
	ErrNotFound = errors.New("lattice: record not found")

	// ErrLockTimeout is returned when the coarse lock could not be acquired
	// within its timeout. The operation is aborted; retrying is the
	// caller's responsibility.
	ErrLockTimeout = errors.New("lattice: lock acquisition timed out")

	// ErrTooManyIDs is returned when a bulk read requests more ids than the
	// configured limit.
	ErrTooManyIDs = errors.New("lattice: too many ids requested")

	// ErrBadPagination is returned for malformed page or page-size values.
	ErrBadPagination = errors.New("lattice: invalid pagination")

	// ErrUnknownUpsertKey is returned when an upsert names a column the
	// table schema does not have.
	ErrUnknownUpsertKey = errors.New("lattice: unknown upsert key")
)

// ConflictError is returned when an update's expected version does not match
// the stored version. The record is left untouched.
type ConflictError struct {
	Table    string
	ID       int64
	Expected int64
	Current  int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("lattice: version conflict on %s id %d: expected %d, current %d",
		e.Table, e.ID, e.Expected, e.Current)
}
