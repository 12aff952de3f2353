package cachekey

import "testing"

func TestTableAll(t *testing.T) {
	if got := TableAll("PRODUCTS"); got != "PRODUCTS_all" {
		t.Errorf("expected PRODUCTS_all, got %q", got)
	}
}

func TestForeignKeyAll(t *testing.T) {
	tests := []struct {
		name     string
		table    string
		value    any
		expected string
	}{
		{"int", "ORDER_PRODUCT_RELATION", 7, "ORDER_PRODUCT_RELATION_FK_7_all"},
		{"int64", "T", int64(7), "T_FK_7_all"},
		{"whole float matches int", "T", 7.0, "T_FK_7_all"},
		{"fractional float", "T", 7.5, "T_FK_7.5_all"},
		{"string", "T", "abc", "T_FK_abc_all"},
		{"bool", "T", true, "T_FK_true_all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForeignKeyAll(tt.table, tt.value); got != tt.expected {
				t.Errorf("ForeignKeyAll(%q, %v) = %q, want %q", tt.table, tt.value, got, tt.expected)
			}
		})
	}
}
