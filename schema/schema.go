// Package schema defines table schemas for the lattice record store and
// validates record data against them.
//
// A schema names a main sheet and its paired history sheet, carries an
// ordered list of typed fields, and optionally enables per-record
// versioning. Registered schemas live in a [Registry] that is ephemeral per
// call chain: the host retains no state between invocations, so every call
// chain attaches the schemas it needs before touching the store.
package schema

import (
	"math"
	"time"
)

// FieldType is the closed set of value types a field may declare.
type FieldType string

const (
	String  FieldType = "string"
	Number  FieldType = "number"
	Boolean FieldType = "boolean"
	Date    FieldType = "date"
)

// valid reports whether t is one of the known field types.
func (t FieldType) valid() bool {
	switch t {
	case String, Number, Boolean, Date:
		return true
	}
	return false
}

// Field describes one typed column of a table.
type Field struct {
	// Name is the column header for this field.
	Name string

	// Type is the declared value type.
	Type FieldType

	// Default is substituted when the field is missing from input.
	// The string "now" on any field resolves to the call-time timestamp;
	// a nil Default coalesces to the empty string at application time.
	Default any

	// HasDefault distinguishes "no default" from "default of nil".
	HasDefault bool

	// NullIsMissing treats an explicit nil value as missing, making it
	// eligible for default substitution.
	NullIsMissing bool

	// EmptyIsMissing treats an empty string value as missing.
	EmptyIsMissing bool
}

// F is the shorthand field constructor: a bare type with no default and no
// missing-value policy.
func F(name string, t FieldType) Field {
	return Field{Name: name, Type: t}
}

// Required reports whether the field must be supplied by the caller.
func (f Field) Required() bool {
	return !f.HasDefault
}

// missing reports whether value counts as missing under this field's policy.
// An absent key always counts; present is false in that case.
func (f Field) missing(value any, present bool) bool {
	if !present {
		return true
	}
	if value == nil && f.NullIsMissing {
		return true
	}
	if s, ok := value.(string); ok && s == "" && f.EmptyIsMissing {
		return true
	}
	return false
}

// Reserved column headers. Every sheet row is laid out as
// [ID, DATE, (VERSION), fields...] with VERSION present only on versioned
// tables.
const (
	ColumnID      = "ID"
	ColumnDate    = "DATE"
	ColumnVersion = "VERSION"
)

// Table is a registered table schema.
type Table struct {
	// Name is the main sheet name.
	Name string

	// History is the paired history sheet name.
	History string

	// Fields is the ordered field list. Row layout follows this order.
	Fields []Field

	// Versioned enables the per-record VERSION column and optimistic
	// concurrency control.
	Versioned bool
}

// Header returns the header row for the main sheet:
// [ID, DATE, (VERSION), field names...].
func (t *Table) Header() []any {
	header := []any{ColumnID, ColumnDate}
	if t.Versioned {
		header = append(header, ColumnVersion)
	}
	for _, f := range t.Fields {
		header = append(header, f.Name)
	}
	return header
}

// HistoryHeader returns the header row for the history sheet. The version
// column is preserved in history for versioned tables.
func (t *Table) HistoryHeader() []any {
	return t.Header()
}

// DataStart returns the 1-based column index of the first schema field.
func (t *Table) DataStart() int {
	if t.Versioned {
		return 4
	}
	return 3
}

// Column returns the 1-based column index of the named field, or 0 if the
// field is not part of the schema. The reserved ID, DATE, and VERSION
// headers resolve to their fixed positions.
func (t *Table) Column(name string) int {
	switch name {
	case ColumnID:
		return 1
	case ColumnDate:
		return 2
	case ColumnVersion:
		if t.Versioned {
			return 3
		}
		return 0
	}
	for i, f := range t.Fields {
		if f.Name == name {
			return t.DataStart() + i
		}
	}
	return 0
}

// Field returns the named field definition.
func (t *Table) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the field names in schema order.
func (t *Table) FieldNames() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

// CheckType reports whether value conforms to the declared field type.
// Unknown types and malformed values fail closed.
func CheckType(value any, t FieldType) bool {
	switch t {
	case String:
		_, ok := value.(string)
		return ok
	case Number:
		f, ok := toFloat(value)
		if !ok {
			return false
		}
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	case Boolean:
		_, ok := value.(bool)
		return ok
	case Date:
		switch v := value.(type) {
		case time.Time:
			return !v.IsZero()
		case string:
			_, err := time.Parse(time.RFC3339, v)
			return err == nil
		}
		return false
	}
	return false
}

// toFloat widens any numeric value to float64.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
