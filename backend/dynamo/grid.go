package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/lattice/backend"
)

// Grid implements the tabular substrate over one DynamoDB table. Each grid
// row is an item keyed (sheet, row#) with the cells in a list attribute;
// item (sheet, 0) marks sheet existence. Row deletion rewrites every
// subsequent row to preserve the contract that indices shift down by one.
type Grid struct {
	client *dynamodb.Client
	config Config
}

// NewGrid creates a Grid over the given client.
func NewGrid(client *dynamodb.Client, config Config) *Grid {
	config.validate()
	return &Grid{client: client, config: config}
}

func (g *Grid) key(sheet string, row int) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"sheet": &types.AttributeValueMemberS{Value: sheet},
		"row":   &types.AttributeValueMemberN{Value: strconv.Itoa(row)},
	}
}

// EnsureSheet creates the sheet marker if absent.
func (g *Grid) EnsureSheet(ctx context.Context, sheet string) error {
	_, err := g.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(g.config.GridTable),
		Item:                g.key(sheet, 0),
		ConditionExpression: aws.String("attribute_not_exists(sheet)"),
	})
	if isConditionalCheckFailed(err) {
		return nil
	}
	return err
}

func (g *Grid) exists(ctx context.Context, sheet string) error {
	result, err := g.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(g.config.GridTable),
		Key:       g.key(sheet, 0),
	})
	if err != nil {
		return err
	}
	if result.Item == nil {
		return fmt.Errorf("%w: %s", backend.ErrNoSuchSheet, sheet)
	}
	return nil
}

// Headers returns row 1 of the sheet, or nil if the sheet is empty.
func (g *Grid) Headers(ctx context.Context, sheet string) ([]any, error) {
	if err := g.exists(ctx, sheet); err != nil {
		return nil, err
	}
	return g.readRow(ctx, sheet, 1)
}

// Append adds a row after the last occupied row.
func (g *Grid) Append(ctx context.Context, sheet string, row []any) error {
	rows, _, err := g.Size(ctx, sheet)
	if err != nil {
		return err
	}
	return g.writeRow(ctx, sheet, rows+1, row)
}

// ReadRow returns the row at the 1-based index, or nil if unoccupied.
func (g *Grid) ReadRow(ctx context.Context, sheet string, index int) ([]any, error) {
	if err := g.exists(ctx, sheet); err != nil {
		return nil, err
	}
	return g.readRow(ctx, sheet, index)
}

func (g *Grid) readRow(ctx context.Context, sheet string, index int) ([]any, error) {
	result, err := g.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(g.config.GridTable),
		Key:       g.key(sheet, index),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, nil
	}
	cells, ok := result.Item["cells"]
	if !ok {
		return nil, nil
	}
	return decodeRow(cells)
}

// WriteRow overwrites the row at the 1-based index.
func (g *Grid) WriteRow(ctx context.Context, sheet string, index int, row []any) error {
	if err := g.exists(ctx, sheet); err != nil {
		return err
	}
	return g.writeRow(ctx, sheet, index, row)
}

func (g *Grid) writeRow(ctx context.Context, sheet string, index int, row []any) error {
	cells, err := encodeRow(row)
	if err != nil {
		return fmt.Errorf("encode row %d of %s: %w", index, sheet, err)
	}
	item := g.key(sheet, index)
	item["cells"] = cells
	_, err = g.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(g.config.GridTable),
		Item:      item,
	})
	return err
}

// DeleteRow removes the row at the 1-based index. Every subsequent row is
// rewritten one index up and the tail item removed, so row order stays
// dense. Expensive, but the substrate contract requires the shift.
func (g *Grid) DeleteRow(ctx context.Context, sheet string, index int) error {
	rows, _, err := g.Size(ctx, sheet)
	if err != nil {
		return err
	}
	if index < 1 || index > rows {
		return nil
	}
	for j := index; j < rows; j++ {
		row, err := g.readRow(ctx, sheet, j+1)
		if err != nil {
			return fmt.Errorf("shift row %d of %s: %w", j+1, sheet, err)
		}
		if err := g.writeRow(ctx, sheet, j, row); err != nil {
			return fmt.Errorf("shift row %d of %s: %w", j+1, sheet, err)
		}
	}
	_, err = g.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(g.config.GridTable),
		Key:       g.key(sheet, rows),
	})
	return err
}

// Match returns the 1-based index of the first row whose cell in the
// 1-based column equals value, or 0 if none matches. Rows come back in
// index order, so the lowest matching index wins.
func (g *Grid) Match(ctx context.Context, sheet string, column int, value any) (int, error) {
	if err := g.exists(ctx, sheet); err != nil {
		return 0, err
	}

	paginator := dynamodb.NewQueryPaginator(g.client, g.rowQuery(sheet))
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		for _, item := range page.Items {
			row, err := decodeRow(item["cells"])
			if err != nil {
				return 0, err
			}
			if column >= 1 && column <= len(row) && cellEqual(row[column-1], value) {
				return itemRow(item), nil
			}
		}
	}
	return 0, nil
}

// Size returns the occupied row and column extents of the sheet.
func (g *Grid) Size(ctx context.Context, sheet string) (int, int, error) {
	if err := g.exists(ctx, sheet); err != nil {
		return 0, 0, err
	}

	rows, cols := 0, 0
	paginator := dynamodb.NewQueryPaginator(g.client, g.rowQuery(sheet))
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, 0, err
		}
		for _, item := range page.Items {
			rows++
			if list, ok := item["cells"].(*types.AttributeValueMemberL); ok && len(list.Value) > cols {
				cols = len(list.Value)
			}
		}
	}
	return rows, cols, nil
}

// rowQuery selects every data-bearing row item of a sheet, skipping the
// existence marker at row 0.
func (g *Grid) rowQuery(sheet string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(g.config.GridTable),
		KeyConditionExpression: aws.String("sheet = :sheet AND #row >= :one"),
		ExpressionAttributeNames: map[string]string{
			"#row": "row",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sheet": &types.AttributeValueMemberS{Value: sheet},
			":one":   &types.AttributeValueMemberN{Value: "1"},
		},
	}
}

func itemRow(item map[string]types.AttributeValue) int {
	n, ok := item["row"].(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	row, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0
	}
	return row
}
