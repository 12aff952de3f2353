package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jacentio/lattice/schema"
)

// RemoveResult reports the outcome of a Remove.
type RemoveResult struct {
	ID int64 `json:"id"`

	// HistoryID is the archived copy's id in the history table.
	HistoryID int64 `json:"historyId"`

	// Cascaded counts the junction rows deleted before the record itself.
	// Zero for plain Remove.
	Cascaded int `json:"cascaded,omitempty"`
}

// Remove deletes the record and relocates it to the history table under a
// new history-scoped id with the deletion timestamp. The archived copy
// preserves the version at deletion time.
func (s *Store) Remove(ctx context.Context, table, history string, id int64) (*RemoveResult, error) {
	t, err := s.schemas.Table(table)
	if err != nil {
		return nil, err
	}

	var result *RemoveResult
	err = s.withWriteLock(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.removeLocked(ctx, t, history, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveWithCascade deletes every junction row referencing the record in
// every relation-shaped table, then the record itself. The steps commit
// independently: a failure partway leaves earlier deletions in place.
func (s *Store) RemoveWithCascade(ctx context.Context, table, history string, id int64) (*RemoveResult, error) {
	t, err := s.schemas.Table(table)
	if err != nil {
		return nil, err
	}

	var result *RemoveResult
	err = s.withWriteLock(ctx, func(ctx context.Context) error {
		cascaded := 0
		fk := foreignKeyField(table)
		for _, name := range s.schemas.Names() {
			rel, err := s.schemas.Table(name)
			if err != nil || !referencesVia(rel, fk) {
				continue
			}
			n, err := s.deleteByForeignKey(ctx, rel, fk, id)
			if err != nil {
				return fmt.Errorf("cascade into %s: %w", name, err)
			}
			cascaded += n
		}

		result, err = s.removeLocked(ctx, t, history, id)
		if err != nil {
			return err
		}
		result.Cascaded = cascaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveMany deletes and archives a batch of records under one lock
// acquisition. Ids already absent are skipped. Returns the number of
// records removed; a failure partway leaves earlier removals committed.
func (s *Store) RemoveMany(ctx context.Context, table, history string, ids []int64) (int, error) {
	t, err := s.schemas.Table(table)
	if err != nil {
		return 0, err
	}

	removed := 0
	err = s.withWriteLock(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			if _, err := s.removeLocked(ctx, t, history, id); err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// removeLocked performs the delete-and-archive body. The coarse lock must
// be held.
func (s *Store) removeLocked(ctx context.Context, t *schema.Table, history string, id int64) (*RemoveResult, error) {
	if history == "" {
		history = t.History
	}

	current, idx, err := s.readLocked(ctx, t, id)
	if err != nil {
		return nil, err
	}

	histID, err := s.nextID(ctx, history)
	if err != nil {
		return nil, err
	}
	archived := buildRow(t, histID, time.Now(), current.Version, current.Fields)
	if err := s.grid.Append(ctx, history, archived); err != nil {
		return nil, fmt.Errorf("archive to %s: %w", history, err)
	}

	// The archive committed; the row index is still valid because the
	// lock is held and nothing deleted from this sheet since readLocked.
	if err := s.grid.DeleteRow(ctx, t.Name, idx); err != nil {
		return nil, fmt.Errorf("delete row %d of %s: %w", idx, t.Name, err)
	}

	s.invalidate(ctx, t.Name, current.Fields)
	s.invalidate(ctx, history)
	return &RemoveResult{ID: id, HistoryID: histID}, nil
}

// deleteByForeignKey removes and archives every row of rel whose fk column
// equals id. The coarse lock must be held.
func (s *Store) deleteByForeignKey(ctx context.Context, rel *schema.Table, fk string, id int64) (int, error) {
	col := rel.Column(fk)
	count := 0
	for {
		idx, err := s.grid.Match(ctx, rel.Name, col, id)
		if err != nil {
			return count, fmt.Errorf("scan %s: %w", rel.Name, err)
		}
		if idx <= 1 {
			return count, nil
		}
		row, err := s.grid.ReadRow(ctx, rel.Name, idx)
		if err != nil {
			return count, fmt.Errorf("read row %d of %s: %w", idx, rel.Name, err)
		}
		if _, err := s.removeLocked(ctx, rel, rel.History, toInt64(first(row))); err != nil {
			return count, err
		}
		count++
	}
}

// referencesVia reports whether t is relation-shaped and references a
// parent through the given foreign-key field: the field must exist and the
// table must carry at least two foreign-key columns.
func referencesVia(t *schema.Table, fk string) bool {
	if _, ok := t.Field(fk); !ok {
		return false
	}
	fkCount := 0
	for _, f := range t.Fields {
		if strings.HasSuffix(f.Name, "_id") {
			fkCount++
		}
	}
	return fkCount >= 2
}
