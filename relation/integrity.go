package relation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jacentio/lattice/store"
)

// CheckTableIntegrity audits a junction table: every foreign key of every
// row is tested against its parent, and rows with at least one dangling
// reference are removed and archived in one batch. Returns the removed
// count.
func (e *Engine) CheckTableIntegrity(ctx context.Context, table, history string) (int, error) {
	pair, err := e.foreignKeyPair(table)
	if err != nil {
		return 0, err
	}

	all, err := e.store.GetAll(ctx, table, store.GetAllOptions{NoCache: true})
	if err != nil {
		return 0, err
	}

	// Parent lookups repeat heavily across junction rows; memoize per id.
	seen := make(map[string]bool)
	var failing []int64
	for _, rec := range all.Records {
		for _, fk := range pair {
			parent, ok := e.parentTable(fk)
			if !ok {
				continue
			}
			id := asID(rec.Fields[fk])
			key := fmt.Sprintf("%s#%d", parent, id)
			alive, checked := seen[key]
			if !checked {
				_, err := e.store.Read(ctx, parent, id)
				if err != nil && !errors.Is(err, store.ErrNotFound) {
					return 0, err
				}
				alive = err == nil
				seen[key] = alive
			}
			if !alive {
				e.logger.Warn("dangling reference",
					"table", table, "id", rec.ID, "field", fk, "parent", parent, "parentId", id)
				failing = append(failing, rec.ID)
				break
			}
		}
	}

	if len(failing) == 0 {
		return 0, nil
	}
	removed, err := e.store.RemoveMany(ctx, table, history, failing)
	if err != nil {
		return removed, fmt.Errorf("repair %s: %w", table, err)
	}
	e.logger.Info("integrity repair complete", "table", table, "removed", removed)
	return removed, nil
}

// DeleteRelatedJunctionRecords removes and archives every junction row in
// table whose foreign key for parentTable equals parentID. Returns the
// removed count.
func (e *Engine) DeleteRelatedJunctionRecords(ctx context.Context, table, history, parentTable string, parentID int64) (int, error) {
	if _, err := e.foreignKeyPair(table); err != nil {
		return 0, err
	}
	fk := foreignKey(parentTable)

	rows, err := e.store.ScanByField(ctx, table, fk, parentID, false)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return e.store.RemoveMany(ctx, table, history, ids)
}
