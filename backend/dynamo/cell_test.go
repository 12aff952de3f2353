package dynamo

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestCellRoundTrip(t *testing.T) {
	when := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		cell     any
		expected any
	}{
		{"nil", nil, nil},
		{"string", "widget", "widget"},
		{"bool", true, true},
		{"float", 2.5, 2.5},
		{"int widens", 7, 7.0},
		{"int64 widens", int64(9), 9.0},
		{"date", when, when},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attr, err := encodeCell(tt.cell)
			if err != nil {
				t.Fatalf("encodeCell failed: %v", err)
			}
			got, err := decodeCell(attr)
			if err != nil {
				t.Fatalf("decodeCell failed: %v", err)
			}
			if d, ok := tt.expected.(time.Time); ok {
				if !got.(time.Time).Equal(d) {
					t.Errorf("decoded %v, want %v", got, d)
				}
				return
			}
			if got != tt.expected {
				t.Errorf("decoded %v (%T), want %v (%T)", got, got, tt.expected, tt.expected)
			}
		})
	}
}

func TestEncodeCell_UnsupportedType(t *testing.T) {
	if _, err := encodeCell(struct{}{}); err == nil {
		t.Error("expected an error for an unsupported cell type")
	}
}

func TestDecodeCell_MalformedNumber(t *testing.T) {
	if _, err := decodeCell(&types.AttributeValueMemberN{Value: "abc"}); err == nil {
		t.Error("expected an error for a malformed number")
	}
}

func TestRowRoundTrip(t *testing.T) {
	row := []any{int64(1), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), int64(2), "widget", 5.0, nil}

	attr, err := encodeRow(row)
	if err != nil {
		t.Fatalf("encodeRow failed: %v", err)
	}
	got, err := decodeRow(attr)
	if err != nil {
		t.Fatalf("decodeRow failed: %v", err)
	}
	if len(got) != len(row) {
		t.Fatalf("row length %d, want %d", len(got), len(row))
	}
	// Integer cells come back widened; match them the way the grid does.
	for i := range row {
		if !cellEqual(got[i], row[i]) {
			t.Errorf("cell %d = %v (%T), want %v", i, got[i], got[i], row[i])
		}
	}
}

func TestDecodeRow_WrongShape(t *testing.T) {
	if _, err := decodeRow(&types.AttributeValueMemberS{Value: "not a list"}); err == nil {
		t.Error("expected an error for a non-list row attribute")
	}
}
