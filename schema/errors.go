package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownFieldType is returned when a field declares a type outside
	// the closed set.
	ErrUnknownFieldType = errors.New("lattice: unknown field type")

	// ErrAlreadyRegistered is returned when a table name is registered or
	// attached twice in one registry.
	ErrAlreadyRegistered = errors.New("lattice: table already registered")

	// ErrTableNotRegistered is returned when an operation names a table the
	// registry does not know.
	ErrTableNotRegistered = errors.New("lattice: table not registered")
)

// MissingFieldsError reports required fields absent from a key order, or
// key-order entries absent from input data.
type MissingFieldsError struct {
	Table   string
	Missing []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("lattice: table %s missing required fields: %s",
		e.Table, strings.Join(e.Missing, ", "))
}

// TypeError reports a value that does not conform to its field's declared
// type.
type TypeError struct {
	Table string
	Field string
	Type  FieldType
	Value any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("lattice: table %s field %s: value %v is not a valid %s",
		e.Table, e.Field, e.Value, e.Type)
}
