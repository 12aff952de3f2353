package relation

import (
	"fmt"
)

// statusErr is a sentinel error carrying its response status for the
// uniform envelope.
type statusErr struct {
	msg  string
	code int
}

func (e *statusErr) Error() string   { return e.msg }
func (e *statusErr) StatusCode() int { return e.code }

// ErrNotJunctionTable is returned when an operation targets a table without
// exactly two foreign-key fields.
var ErrNotJunctionTable error = &statusErr{"lattice: not a junction table", 400}

// DuplicateRelationError is returned when a live junction row already
// relates the same foreign-key pair.
type DuplicateRelationError struct {
	Table  string
	Field1 string
	Value1 int64
	Field2 string
	Value2 int64
}

func (e *DuplicateRelationError) Error() string {
	return fmt.Sprintf("lattice: duplicate relation in %s: %s=%d, %s=%d",
		e.Table, e.Field1, e.Value1, e.Field2, e.Value2)
}

// StatusCode maps the duplicate pair to the conflict status in the uniform
// response envelope.
func (e *DuplicateRelationError) StatusCode() int { return 409 }
