// Package relation maintains many-to-many integrity by hand on a substrate
// with no native foreign keys: junction-table lifecycle, duplicate-pair
// prevention, relationship resolution, and orphan repair.
//
// A junction table relates exactly two entities through `<entity>_id`
// columns and lives under the conventional name `<E1>_<E2>_RELATION`.
package relation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jacentio/lattice/schema"
	"github.com/jacentio/lattice/store"
)

// Engine runs relational integrity operations over a record store.
type Engine struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates an Engine. A nil logger falls back to slog.Default.
func New(s *store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: s, logger: logger}
}

// Store returns the underlying record store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// PlanJunctionTable returns the schema for a junction table relating two
// registered, storage-backed entities: `<E1>_<E2>_RELATION` with a
// created_at timestamp, one foreign-key column per entity, and any extra
// fields appended. The schema is not registered; pass it to the registry.
func (e *Engine) PlanJunctionTable(ctx context.Context, entity1, entity2 string, extra []schema.Field) (schema.Table, error) {
	for _, entity := range []string{entity1, entity2} {
		if !e.store.Schemas().Has(entity) {
			return schema.Table{}, fmt.Errorf("%w: %s", schema.ErrTableNotRegistered, entity)
		}
		if _, err := e.store.Grid().Headers(ctx, entity); err != nil {
			return schema.Table{}, fmt.Errorf("entity %s has no backing storage: %w", entity, err)
		}
	}

	fields := []schema.Field{
		{Name: "created_at", Type: schema.Date, Default: schema.DefaultNow, HasDefault: true},
		schema.F(foreignKey(entity1), schema.Number),
		schema.F(foreignKey(entity2), schema.Number),
	}
	fields = append(fields, extra...)

	return schema.Table{
		Name:   fmt.Sprintf("%s_%s_RELATION", entity1, entity2),
		Fields: fields,
	}, nil
}

// CreateJunctionRecord creates a junction row after verifying that both
// referenced records exist and that no live row already relates the same
// pair.
func (e *Engine) CreateJunctionRecord(ctx context.Context, table string, data map[string]any, keyOrder []string) (*store.CreateResult, error) {
	pair, err := e.foreignKeyPair(table)
	if err != nil {
		return nil, err
	}
	if err := e.checkReferences(ctx, table, pair, data); err != nil {
		return nil, err
	}
	if err := e.checkDuplicatePair(ctx, table, pair, data, 0); err != nil {
		return nil, err
	}
	return e.store.Create(ctx, table, data, keyOrder, store.CreateOptions{})
}

// UpdateJunctionRecord updates a junction row with the same duplicate-pair
// check, excluding the row under update from the comparison set.
func (e *Engine) UpdateJunctionRecord(ctx context.Context, table string, id int64, data map[string]any, keyOrder []string, opts store.UpdateOptions) (*store.UpdateResult, error) {
	pair, err := e.foreignKeyPair(table)
	if err != nil {
		return nil, err
	}
	if err := e.checkReferences(ctx, table, pair, data); err != nil {
		return nil, err
	}
	if err := e.checkDuplicatePair(ctx, table, pair, data, id); err != nil {
		return nil, err
	}
	return e.store.Update(ctx, table, id, data, keyOrder, opts)
}

// foreignKeyPair returns the table's two foreign-key fields, failing if the
// table does not carry exactly two `_id`-suffixed fields.
func (e *Engine) foreignKeyPair(table string) ([2]string, error) {
	t, err := e.store.Schemas().Table(table)
	if err != nil {
		return [2]string{}, err
	}
	var fks []string
	for _, f := range t.Fields {
		if strings.HasSuffix(f.Name, "_id") {
			fks = append(fks, f.Name)
		}
	}
	if len(fks) != 2 {
		return [2]string{}, fmt.Errorf("%w: %s has %d foreign-key fields", ErrNotJunctionTable, table, len(fks))
	}
	return [2]string{fks[0], fks[1]}, nil
}

// checkReferences verifies that each foreign key in data points at an
// existing record.
func (e *Engine) checkReferences(ctx context.Context, table string, pair [2]string, data map[string]any) error {
	for _, fk := range pair {
		value, ok := data[fk]
		if !ok {
			continue
		}
		parent, ok := e.parentTable(fk)
		if !ok {
			return fmt.Errorf("%w: no registered table for %s", schema.ErrTableNotRegistered, fk)
		}
		if _, err := e.store.Read(ctx, parent, asID(value)); err != nil {
			return fmt.Errorf("referenced %s %v: %w", parent, value, err)
		}
	}
	return nil
}

// checkDuplicatePair fails when a live row other than excludeID already
// holds the same foreign-key pair.
func (e *Engine) checkDuplicatePair(ctx context.Context, table string, pair [2]string, data map[string]any, excludeID int64) error {
	a, aok := data[pair[0]]
	b, bok := data[pair[1]]
	if !aok || !bok {
		return nil
	}

	rows, err := e.store.ScanByField(ctx, table, pair[0], a, false)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if row.ID == excludeID {
			continue
		}
		if fieldEqual(row.Fields[pair[1]], b) {
			return &DuplicateRelationError{
				Table:  table,
				Field1: pair[0],
				Value1: asID(a),
				Field2: pair[1],
				Value2: asID(b),
			}
		}
	}
	return nil
}

// parentTable resolves a foreign-key field name to the registered table it
// references.
func (e *Engine) parentTable(fk string) (string, bool) {
	for _, name := range e.store.Schemas().Names() {
		if foreignKey(name) == fk {
			return name, true
		}
	}
	return "", false
}

// JunctionTables returns the registered tables shaped like junction tables:
// exactly two `_id`-suffixed fields.
func (e *Engine) JunctionTables() []string {
	var tables []string
	for _, name := range e.store.Schemas().Names() {
		if _, err := e.foreignKeyPair(name); err == nil {
			tables = append(tables, name)
		}
	}
	return tables
}

func foreignKey(table string) string {
	return strings.ToLower(table) + "_id"
}

func asID(value any) int64 {
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

func fieldEqual(a, b any) bool {
	af, aok := asNumber(a)
	bf, bok := asNumber(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
