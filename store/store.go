// Package store implements a concurrency-controlled record store over a
// flat tabular substrate.
//
// The store composes two independent concurrency mechanisms: a coarse
// pessimistic lock serializing every lock-respecting operation against one
// another, and per-record optimistic version compare-and-swap on tables
// with versioning enabled. Schemas are validated by the injected
// [schema.Registry]; table scans go through a read-through TTL cache that
// every successful mutation invalidates.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jacentio/lattice/backend"
	"github.com/jacentio/lattice/schema"
)

// Store provides schema-validated CRUD over a grid substrate.
type Store struct {
	grid    backend.Grid
	cache   backend.Cache
	lock    backend.Locker
	schemas *schema.Registry
	config  Config

	mu     sync.Mutex
	fkKeys map[string]map[string]struct{}
}

// New creates a Store over the given backends. The registry is ephemeral
// per call chain: attach or register every table the chain touches before
// operating on it.
func New(grid backend.Grid, cache backend.Cache, lock backend.Locker, schemas *schema.Registry, config Config) *Store {
	config.validate()
	return &Store{
		grid:    grid,
		cache:   cache,
		lock:    lock,
		schemas: schemas,
		config:  config,
		fkKeys:  make(map[string]map[string]struct{}),
	}
}

// Schemas returns the injected schema registry.
func (s *Store) Schemas() *schema.Registry {
	return s.schemas
}

// Grid returns the underlying grid backend.
func (s *Store) Grid() backend.Grid {
	return s.grid
}

// Upsert redirects a create to an update when an exact match for Value is
// found in the Key column.
type Upsert struct {
	Key   string
	Value any
}

// CreateOptions configures Create behavior.
type CreateOptions struct {
	// Upsert, when set, scans the named column for an exact match and
	// updates the matched record instead of appending a new one.
	Upsert *Upsert
}

// CreateResult reports the outcome of a Create.
type CreateResult struct {
	ID int64 `json:"id"`

	// Version is 1 for a fresh record on a versioned table, the advanced
	// version when Upsert redirected to an update, and 0 otherwise.
	Version int64 `json:"version,omitempty"`

	// Updated is true when Upsert redirected to an existing record.
	Updated bool `json:"updated,omitempty"`

	// AppliedDefaults lists the fields that received a default value.
	AppliedDefaults []string `json:"appliedDefaults,omitempty"`
}

// Create validates data against the table schema, applies defaults, and
// appends a new record. Ids are allocated as max(rowCount, lastStoredID+1):
// a gap left by deleting a mid-table row is never reused, while deleting
// the newest record frees its id for the next create.
func (s *Store) Create(ctx context.Context, table string, data map[string]any, keyOrder []string, opts CreateOptions) (*CreateResult, error) {
	t, err := s.schemas.Table(table)
	if err != nil {
		return nil, err
	}
	filled, applied, err := s.prepare(t, data, keyOrder)
	if err != nil {
		return nil, err
	}

	var result *CreateResult
	err = s.withWriteLock(ctx, func(ctx context.Context) error {
		if opts.Upsert != nil {
			col := t.Column(opts.Upsert.Key)
			if col == 0 {
				return fmt.Errorf("%w: %s has no column %s", ErrUnknownUpsertKey, table, opts.Upsert.Key)
			}
			idx, err := s.grid.Match(ctx, t.Name, col, opts.Upsert.Value)
			if err != nil {
				return fmt.Errorf("upsert scan %s: %w", table, err)
			}
			if idx > 1 {
				row, err := s.grid.ReadRow(ctx, t.Name, idx)
				if err != nil {
					return fmt.Errorf("read row %d of %s: %w", idx, table, err)
				}
				existing := toInt64(first(row))
				updated, err := s.updateLocked(ctx, t, existing, filled, UpdateOptions{})
				if err != nil {
					return err
				}
				result = &CreateResult{ID: updated.ID, Version: updated.Version, Updated: true, AppliedDefaults: applied}
				return nil
			}
		}

		id, err := s.nextID(ctx, t.Name)
		if err != nil {
			return err
		}
		var version int64
		if t.Versioned {
			version = 1
		}
		if err := s.grid.Append(ctx, t.Name, buildRow(t, id, time.Now(), version, filled)); err != nil {
			return fmt.Errorf("append to %s: %w", table, err)
		}
		s.invalidate(ctx, t.Name, filled)
		result = &CreateResult{ID: id, Version: version, AppliedDefaults: applied}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Read returns the record with the given id.
func (s *Store) Read(ctx context.Context, table string, id int64) (*Record, error) {
	t, err := s.schemas.Table(table)
	if err != nil {
		return nil, err
	}

	var rec *Record
	err = s.withReadLock(ctx, func(ctx context.Context) error {
		var err error
		rec, _, err = s.readLocked(ctx, t, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateOptions configures Update behavior.
type UpdateOptions struct {
	// TypesChecked asserts the caller already validated and defaulted
	// data, skipping re-validation.
	TypesChecked bool

	// Upsert, when set, redirects the update to the record matched in the
	// named column instead of the id argument.
	Upsert *Upsert

	// ExpectedVersion, when non-zero on a versioned table, makes the write
	// conditional: a mismatch with the stored version aborts with a
	// *ConflictError and mutates nothing. Zero writes unconditionally.
	ExpectedVersion int64
}

// UpdateResult reports the outcome of an Update.
type UpdateResult struct {
	ID      int64 `json:"id"`
	Version int64 `json:"version,omitempty"`
}

// Update overwrites the record's row in one write, advancing the version by
// exactly one on versioned tables.
func (s *Store) Update(ctx context.Context, table string, id int64, data map[string]any, keyOrder []string, opts UpdateOptions) (*UpdateResult, error) {
	t, err := s.schemas.Table(table)
	if err != nil {
		return nil, err
	}
	filled := data
	if !opts.TypesChecked {
		filled, _, err = s.prepare(t, data, keyOrder)
		if err != nil {
			return nil, err
		}
	}

	var result *UpdateResult
	err = s.withWriteLock(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.updateLocked(ctx, t, id, filled, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// updateLocked performs the update body. The coarse lock must be held.
func (s *Store) updateLocked(ctx context.Context, t *schema.Table, id int64, data map[string]any, opts UpdateOptions) (*UpdateResult, error) {
	if opts.Upsert != nil {
		col := t.Column(opts.Upsert.Key)
		if col > 0 {
			idx, err := s.grid.Match(ctx, t.Name, col, opts.Upsert.Value)
			if err != nil {
				return nil, fmt.Errorf("upsert scan %s: %w", t.Name, err)
			}
			if idx > 1 {
				row, err := s.grid.ReadRow(ctx, t.Name, idx)
				if err != nil {
					return nil, fmt.Errorf("read row %d of %s: %w", idx, t.Name, err)
				}
				id = toInt64(first(row))
			}
		}
	}

	current, idx, err := s.readLocked(ctx, t, id)
	if err != nil {
		return nil, err
	}

	// Version CAS: compare against the stored version while holding the
	// lock, before any mutation.
	if t.Versioned && opts.ExpectedVersion != 0 && current.Version != opts.ExpectedVersion {
		return nil, &ConflictError{
			Table:    t.Name,
			ID:       id,
			Expected: opts.ExpectedVersion,
			Current:  current.Version,
		}
	}

	merged := make(map[string]any, len(t.Fields))
	for _, f := range t.Fields {
		merged[f.Name] = current.Fields[f.Name]
	}
	for k, v := range data {
		merged[k] = v
	}

	var version int64
	if t.Versioned {
		version = current.Version + 1
	}
	if err := s.grid.WriteRow(ctx, t.Name, idx, buildRow(t, id, time.Now(), version, merged)); err != nil {
		return nil, fmt.Errorf("write row %d of %s: %w", idx, t.Name, err)
	}
	s.invalidate(ctx, t.Name, current.Fields, merged)
	return &UpdateResult{ID: id, Version: version}, nil
}

// readLocked locates and materializes a record. The coarse lock must be
// held. Returns the record and its current row index.
func (s *Store) readLocked(ctx context.Context, t *schema.Table, id int64) (*Record, int, error) {
	idx, err := s.grid.Match(ctx, t.Name, 1, id)
	if err != nil {
		return nil, 0, fmt.Errorf("find id %d in %s: %w", id, t.Name, err)
	}
	if idx <= 1 {
		return nil, 0, fmt.Errorf("%w: %s id %d", ErrNotFound, t.Name, id)
	}
	headers, err := s.grid.Headers(ctx, t.Name)
	if err != nil {
		return nil, 0, fmt.Errorf("read headers of %s: %w", t.Name, err)
	}
	row, err := s.grid.ReadRow(ctx, t.Name, idx)
	if err != nil {
		return nil, 0, fmt.Errorf("read row %d of %s: %w", idx, t.Name, err)
	}
	return materialize(t, headers, row), idx, nil
}

// nextID allocates the next record id for a sheet:
// max(rowCount, lastStoredID+1). The row count includes the header row, so
// the first record of a fresh table gets id 1. Taking the max keeps ids
// past gaps left by mid-table deletions; only the newest record's id can
// be reclaimed, and only when it is deleted before the next create.
func (s *Store) nextID(ctx context.Context, sheet string) (int64, error) {
	rows, _, err := s.grid.Size(ctx, sheet)
	if err != nil {
		return 0, fmt.Errorf("size of %s: %w", sheet, err)
	}
	var lastID int64
	if rows > 1 {
		last, err := s.grid.ReadRow(ctx, sheet, rows)
		if err != nil {
			return 0, fmt.Errorf("read row %d of %s: %w", rows, sheet, err)
		}
		lastID = toInt64(first(last))
	}
	id := int64(rows)
	if lastID+1 > id {
		id = lastID + 1
	}
	return id, nil
}

// prepare runs the full input pipeline: key-order completeness, missing-key
// detection, default application, and type checks on every supplied field.
func (s *Store) prepare(t *schema.Table, data map[string]any, keyOrder []string) (map[string]any, []string, error) {
	if err := t.ValidateKeyOrder(keyOrder); err != nil {
		return nil, nil, err
	}
	if missing := t.MissingKeys(data, keyOrder); len(missing) > 0 {
		return nil, nil, &schema.MissingFieldsError{Table: t.Name, Missing: missing}
	}
	filled, applied := t.ApplyDefaults(data, keyOrder)
	for name, value := range filled {
		f, ok := t.Field(name)
		if !ok {
			continue
		}
		if !schema.CheckType(value, f.Type) {
			return nil, nil, &schema.TypeError{Table: t.Name, Field: name, Type: f.Type, Value: value}
		}
	}
	return filled, applied, nil
}

// foreignKeyField returns the conventional foreign-key field name for a
// table: the lowercased table name with an "_id" suffix.
func foreignKeyField(table string) string {
	return strings.ToLower(table) + "_id"
}

func first(row []any) any {
	if len(row) == 0 {
		return nil
	}
	return row[0]
}
