package dynamo

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Cells round-trip through typed attribute values so a row reads back with
// the same Go types it was written with. Dates need a wrapper map because
// a bare string attribute cannot be told apart from a string cell.
const dateKey = "$date"

// encodeCell converts one grid cell to an attribute value.
func encodeCell(cell any) (types.AttributeValue, error) {
	switch v := cell.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case string:
		return &types.AttributeValueMemberS{Value: v}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: v}, nil
	case float64:
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(v, 'f', -1, 64)}, nil
	case int:
		return &types.AttributeValueMemberN{Value: strconv.Itoa(v)}, nil
	case int64:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}, nil
	case time.Time:
		return &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			dateKey: &types.AttributeValueMemberS{Value: v.UTC().Format(time.RFC3339Nano)},
		}}, nil
	}
	return nil, fmt.Errorf("dynamo: unsupported cell type %T", cell)
}

// decodeCell converts an attribute value back to a grid cell. Numbers come
// back as float64.
func decodeCell(attr types.AttributeValue) (any, error) {
	switch v := attr.(type) {
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberS:
		return v.Value, nil
	case *types.AttributeValueMemberBOOL:
		return v.Value, nil
	case *types.AttributeValueMemberN:
		f, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("dynamo: malformed number cell %q: %w", v.Value, err)
		}
		return f, nil
	case *types.AttributeValueMemberM:
		if s, ok := v.Value[dateKey].(*types.AttributeValueMemberS); ok {
			d, err := time.Parse(time.RFC3339Nano, s.Value)
			if err != nil {
				return nil, fmt.Errorf("dynamo: malformed date cell %q: %w", s.Value, err)
			}
			return d, nil
		}
	}
	return nil, fmt.Errorf("dynamo: unsupported cell attribute %T", attr)
}

// encodeRow converts a grid row to a list attribute.
func encodeRow(row []any) (types.AttributeValue, error) {
	cells := make([]types.AttributeValue, len(row))
	for i, cell := range row {
		attr, err := encodeCell(cell)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		cells[i] = attr
	}
	return &types.AttributeValueMemberL{Value: cells}, nil
}

// decodeRow converts a list attribute back to a grid row.
func decodeRow(attr types.AttributeValue) ([]any, error) {
	list, ok := attr.(*types.AttributeValueMemberL)
	if !ok {
		return nil, fmt.Errorf("dynamo: row attribute is %T, want list", attr)
	}
	row := make([]any, len(list.Value))
	for i, item := range list.Value {
		cell, err := decodeCell(item)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		row[i] = cell
	}
	return row, nil
}

// cellEqual compares a decoded cell with a query value, widening numerics.
func cellEqual(a, b any) bool {
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok && bok {
		return at.Equal(bt)
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
