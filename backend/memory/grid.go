// Package memory provides in-process backend implementations. They satisfy
// the contracts in [github.com/jacentio/lattice/backend] and are the
// reference backends for unit tests and embedded use.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jacentio/lattice/backend"
)

// Grid is an in-memory tabular substrate. Safe for concurrent use.
type Grid struct {
	mu     sync.Mutex
	sheets map[string][][]any
}

// NewGrid creates an empty Grid.
func NewGrid() *Grid {
	return &Grid{sheets: make(map[string][][]any)}
}

// EnsureSheet creates the sheet if absent.
func (g *Grid) EnsureSheet(_ context.Context, sheet string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.sheets[sheet]; !ok {
		g.sheets[sheet] = [][]any{}
	}
	return nil
}

// Headers returns row 1 of the sheet.
func (g *Grid) Headers(_ context.Context, sheet string) ([]any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rows, ok := g.sheets[sheet]
	if !ok {
		return nil, backend.ErrNoSuchSheet
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return cloneRow(rows[0]), nil
}

// Append adds a row after the last occupied row.
func (g *Grid) Append(_ context.Context, sheet string, row []any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	rows, ok := g.sheets[sheet]
	if !ok {
		return backend.ErrNoSuchSheet
	}
	g.sheets[sheet] = append(rows, cloneRow(row))
	return nil
}

// ReadRow returns the row at the 1-based index.
func (g *Grid) ReadRow(_ context.Context, sheet string, index int) ([]any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rows, ok := g.sheets[sheet]
	if !ok {
		return nil, backend.ErrNoSuchSheet
	}
	if index < 1 || index > len(rows) {
		return nil, nil
	}
	return cloneRow(rows[index-1]), nil
}

// WriteRow overwrites the row at the 1-based index.
func (g *Grid) WriteRow(_ context.Context, sheet string, index int, row []any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	rows, ok := g.sheets[sheet]
	if !ok {
		return backend.ErrNoSuchSheet
	}
	for len(rows) < index {
		rows = append(rows, []any{})
	}
	rows[index-1] = cloneRow(row)
	g.sheets[sheet] = rows
	return nil
}

// DeleteRow removes the row at the 1-based index, shifting subsequent rows up.
func (g *Grid) DeleteRow(_ context.Context, sheet string, index int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	rows, ok := g.sheets[sheet]
	if !ok {
		return backend.ErrNoSuchSheet
	}
	if index < 1 || index > len(rows) {
		return nil
	}
	g.sheets[sheet] = append(rows[:index-1], rows[index:]...)
	return nil
}

// Match returns the 1-based index of the first row whose cell in the 1-based
// column equals value, or 0 if none matches.
func (g *Grid) Match(_ context.Context, sheet string, column int, value any) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rows, ok := g.sheets[sheet]
	if !ok {
		return 0, backend.ErrNoSuchSheet
	}
	for i, row := range rows {
		if column >= 1 && column <= len(row) && cellEqual(row[column-1], value) {
			return i + 1, nil
		}
	}
	return 0, nil
}

// Size returns the occupied row and column extents.
func (g *Grid) Size(_ context.Context, sheet string) (int, int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rows, ok := g.sheets[sheet]
	if !ok {
		return 0, 0, backend.ErrNoSuchSheet
	}
	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return len(rows), cols, nil
}

func cloneRow(row []any) []any {
	out := make([]any, len(row))
	copy(out, row)
	return out
}

// cellEqual compares cell values. Times compare by instant and numbers by
// value, so int64 and float64 forms of the same id match.
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
