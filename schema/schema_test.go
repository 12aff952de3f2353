package schema_test

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/jacentio/lattice/schema"
)

func productsTable() schema.Table {
	return schema.Table{
		Name:      "PRODUCTS",
		Versioned: true,
		Fields: []schema.Field{
			schema.F("name", schema.String),
			schema.F("stock", schema.Number),
		},
	}
}

func TestCheckType(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		typ      schema.FieldType
		expected bool
	}{
		{"string ok", "hello", schema.String, true},
		{"string rejects number", 3.0, schema.String, false},
		{"number float", 3.14, schema.Number, true},
		{"number int", 42, schema.Number, true},
		{"number int64", int64(42), schema.Number, true},
		{"number rejects NaN", math.NaN(), schema.Number, false},
		{"number rejects Inf", math.Inf(1), schema.Number, false},
		{"number rejects string", "42", schema.Number, false},
		{"boolean ok", true, schema.Boolean, true},
		{"boolean rejects string", "true", schema.Boolean, false},
		{"date time ok", time.Now(), schema.Date, true},
		{"date zero time rejected", time.Time{}, schema.Date, false},
		{"date rfc3339 string ok", "2024-06-01T12:00:00Z", schema.Date, true},
		{"date malformed string", "not-a-date", schema.Date, false},
		{"date rejects number", 1717243200.0, schema.Date, false},
		{"unknown type fails closed", "anything", schema.FieldType("blob"), false},
		{"nil string fails", nil, schema.String, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := schema.CheckType(tt.value, tt.typ); got != tt.expected {
				t.Errorf("CheckType(%v, %s) = %v, want %v", tt.value, tt.typ, got, tt.expected)
			}
		})
	}
}

func TestTableHeader(t *testing.T) {
	versioned := productsTable()
	header := versioned.Header()
	want := []any{"ID", "DATE", "VERSION", "name", "stock"}
	if !reflect.DeepEqual(header, want) {
		t.Errorf("expected header %v, got %v", want, header)
	}

	plain := versioned
	plain.Versioned = false
	header = plain.Header()
	want = []any{"ID", "DATE", "name", "stock"}
	if !reflect.DeepEqual(header, want) {
		t.Errorf("expected header %v, got %v", want, header)
	}
}

func TestTableColumn(t *testing.T) {
	table := productsTable()

	tests := []struct {
		field    string
		expected int
	}{
		{"ID", 1},
		{"DATE", 2},
		{"VERSION", 3},
		{"name", 4},
		{"stock", 5},
		{"missing", 0},
	}
	for _, tt := range tests {
		if got := table.Column(tt.field); got != tt.expected {
			t.Errorf("Column(%q) = %d, want %d", tt.field, got, tt.expected)
		}
	}

	plain := table
	plain.Versioned = false
	if got := plain.Column("VERSION"); got != 0 {
		t.Errorf("unversioned table should have no VERSION column, got %d", got)
	}
	if got := plain.Column("name"); got != 3 {
		t.Errorf("Column(name) on unversioned table = %d, want 3", got)
	}
}

func TestValidateKeyOrder(t *testing.T) {
	table := schema.Table{
		Name: "ITEMS",
		Fields: []schema.Field{
			schema.F("name", schema.String),
			{Name: "note", Type: schema.String, Default: "n/a", HasDefault: true},
			schema.F("count", schema.Number),
		},
	}

	if err := table.ValidateKeyOrder([]string{"name", "count"}); err != nil {
		t.Errorf("complete key order rejected: %v", err)
	}

	err := table.ValidateKeyOrder([]string{"name"})
	if err == nil {
		t.Fatal("expected error for key order missing required field")
	}
	var missing *schema.MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingFieldsError, got %T", err)
	}
	if len(missing.Missing) != 1 || missing.Missing[0] != "count" {
		t.Errorf("expected missing [count], got %v", missing.Missing)
	}
}

func TestMissingKeys(t *testing.T) {
	table := schema.Table{
		Name: "ITEMS",
		Fields: []schema.Field{
			schema.F("name", schema.String),
			{Name: "note", Type: schema.String, Default: "n/a", HasDefault: true},
		},
	}

	missing := table.MissingKeys(map[string]any{"name": "x"}, []string{"name", "note"})
	if len(missing) != 0 {
		t.Errorf("defaulted key should not be missing, got %v", missing)
	}

	missing = table.MissingKeys(map[string]any{}, []string{"name", "note"})
	if !reflect.DeepEqual(missing, []string{"name"}) {
		t.Errorf("expected [name], got %v", missing)
	}
}

func TestApplyDefaults(t *testing.T) {
	table := schema.Table{
		Name: "EVENTS",
		Fields: []schema.Field{
			schema.F("title", schema.String),
			{Name: "when", Type: schema.Date, Default: schema.DefaultNow, HasDefault: true},
			{Name: "note", Type: schema.String, Default: nil, HasDefault: true, NullIsMissing: true},
			{Name: "tag", Type: schema.String, Default: "untagged", HasDefault: true, EmptyIsMissing: true},
		},
	}
	keyOrder := []string{"title", "when", "note", "tag"}

	t.Run("now resolves to a timestamp", func(t *testing.T) {
		before := time.Now()
		filled, applied := table.ApplyDefaults(map[string]any{"title": "t"}, keyOrder)
		when, ok := filled["when"].(time.Time)
		if !ok {
			t.Fatalf("expected time.Time for when, got %T", filled["when"])
		}
		if when.Before(before.Add(-time.Second)) {
			t.Errorf("now default resolved to stale time %v", when)
		}
		if !contains(applied, "when") {
			t.Errorf("expected when in applied list, got %v", applied)
		}
	})

	t.Run("nil default coalesces to empty string", func(t *testing.T) {
		filled, _ := table.ApplyDefaults(map[string]any{"title": "t"}, keyOrder)
		if filled["note"] != "" {
			t.Errorf("expected empty string, got %v", filled["note"])
		}
	})

	t.Run("null only missing when flagged", func(t *testing.T) {
		filled, applied := table.ApplyDefaults(map[string]any{"title": "t", "note": nil}, keyOrder)
		if filled["note"] != "" {
			t.Errorf("flagged nil should take default, got %v", filled["note"])
		}
		if !contains(applied, "note") {
			t.Errorf("expected note in applied, got %v", applied)
		}
	})

	t.Run("empty string only missing when flagged", func(t *testing.T) {
		filled, _ := table.ApplyDefaults(map[string]any{"title": "t", "tag": ""}, keyOrder)
		if filled["tag"] != "untagged" {
			t.Errorf("flagged empty string should take default, got %v", filled["tag"])
		}
	})

	t.Run("no-op when everything supplied", func(t *testing.T) {
		in := map[string]any{"title": "t", "when": time.Unix(1e9, 0), "note": "set", "tag": "x"}
		filled, applied := table.ApplyDefaults(in, keyOrder)
		if !reflect.DeepEqual(filled, in) {
			t.Errorf("expected output identical to input, got %v", filled)
		}
		if len(applied) != 0 {
			t.Errorf("expected no applied defaults, got %v", applied)
		}
	})
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

