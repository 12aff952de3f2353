package store

import (
	"time"

	"github.com/jacentio/lattice/schema"
)

// Record is a materialized row: the managed columns plus every schema field
// keyed by header name.
type Record struct {
	// ID is the record's table-unique integer id.
	ID int64 `json:"id"`

	// Date is the creation (or, for history records, deletion) timestamp.
	Date time.Time `json:"date"`

	// Version is the optimistic concurrency version. Zero on tables
	// without versioning.
	Version int64 `json:"version,omitempty"`

	// Fields maps every column header to its value, managed columns
	// included.
	Fields map[string]any `json:"fields"`
}

// materialize builds a Record from a header row and a data row. Short rows
// fill with nil.
func materialize(t *schema.Table, headers, row []any) *Record {
	fields := make(map[string]any, len(headers))
	for i, h := range headers {
		name, ok := h.(string)
		if !ok {
			continue
		}
		var v any
		if i < len(row) {
			v = row[i]
		}
		fields[name] = v
	}

	rec := &Record{Fields: fields}
	rec.ID = toInt64(fields[schema.ColumnID])
	if d, ok := fields[schema.ColumnDate].(time.Time); ok {
		rec.Date = d
	}
	if t.Versioned {
		rec.Version = toInt64(fields[schema.ColumnVersion])
	}
	return rec
}

// buildRow lays out a stored row in schema order:
// [id, date, (version), fields...]. Missing fields store as nil.
func buildRow(t *schema.Table, id int64, date time.Time, version int64, fields map[string]any) []any {
	row := []any{id, date}
	if t.Versioned {
		row = append(row, version)
	}
	for _, f := range t.Fields {
		row = append(row, normalizeCell(f, fields[f.Name]))
	}
	return row
}

// normalizeCell converts a validated field value to its canonical cell
// representation: numbers widen to float64, RFC 3339 strings on date fields
// parse to time.Time.
func normalizeCell(f schema.Field, value any) any {
	if value == nil {
		return nil
	}
	switch f.Type {
	case schema.Number:
		switch v := value.(type) {
		case int:
			return float64(v)
		case int32:
			return float64(v)
		case int64:
			return float64(v)
		case float32:
			return float64(v)
		}
	case schema.Date:
		if s, ok := value.(string); ok {
			if d, err := time.Parse(time.RFC3339, s); err == nil {
				return d
			}
		}
	}
	return value
}

// toInt64 reads an integer cell that may have been stored as int64 or
// float64.
func toInt64(value any) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}
