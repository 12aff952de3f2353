package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jacentio/lattice/internal/cachekey"
	"github.com/jacentio/lattice/schema"
)

// SortOrder values accepted by GetAll.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// GetAllOptions configures GetAll.
type GetAllOptions struct {
	// Page is the 1-based page number. Zero returns everything unpaged.
	Page int

	// PageSize is the page length. Required when Page is set.
	PageSize int

	// SortBy names a schema field to sort on. An unknown field is a soft
	// failure: data returns unsorted with a warning.
	SortBy string

	// SortOrder is SortAsc (default) or SortDesc.
	SortOrder string

	// NoCache bypasses the scan cache for this call.
	NoCache bool
}

// GetAllResult is a page of records plus scan metadata.
type GetAllResult struct {
	Records []*Record `json:"records"`

	// Total is the record count before pagination.
	Total int `json:"total"`

	// Warning is set for soft failures such as an unknown sort field.
	Warning string `json:"warning,omitempty"`
}

// GetAll returns the table's records, read through the scan cache unless
// bypassed. Sorting is type-directed by the named field's schema type;
// pagination applies after sorting.
func (s *Store) GetAll(ctx context.Context, table string, opts GetAllOptions) (*GetAllResult, error) {
	t, err := s.schemas.Table(table)
	if err != nil {
		return nil, err
	}
	if opts.Page < 0 || opts.PageSize < 0 || (opts.Page > 0 && opts.PageSize == 0) {
		return nil, fmt.Errorf("%w: page %d size %d", ErrBadPagination, opts.Page, opts.PageSize)
	}

	key := cachekey.TableAll(table)
	var records []*Record
	cached := false
	if !opts.NoCache {
		records, cached = s.cacheGetRecords(ctx, key)
	}
	if !cached {
		err = s.withReadLock(ctx, func(ctx context.Context) error {
			var err error
			records, err = s.scanLocked(ctx, t, func(*Record) bool { return true })
			return err
		})
		if err != nil {
			return nil, err
		}
		if !opts.NoCache {
			s.cachePutRecords(ctx, key, records)
		}
	}

	result := &GetAllResult{Total: len(records)}
	if opts.SortBy != "" {
		f, ok := t.Field(opts.SortBy)
		if !ok {
			result.Warning = fmt.Sprintf("unknown sort field %q, data returned unsorted", opts.SortBy)
			s.config.Logger.Warn("unknown sort field", "table", table, "field", opts.SortBy)
		} else {
			records = sortRecords(records, opts.SortBy, f.Type, opts.SortOrder == SortDesc)
		}
	}

	result.Records = paginate(records, opts.Page, opts.PageSize)
	return result, nil
}

// ScanByField returns the records whose named field equals value. Results
// cache under the foreign-key-scoped key and are evicted on the table's
// next mutation.
func (s *Store) ScanByField(ctx context.Context, table, field string, value any, useCache bool) ([]*Record, error) {
	t, err := s.schemas.Table(table)
	if err != nil {
		return nil, err
	}
	key := cachekey.ForeignKeyAll(table, value)

	if useCache {
		if records, ok := s.cacheGetRecords(ctx, key); ok {
			return records, nil
		}
	}

	var records []*Record
	err = s.withReadLock(ctx, func(ctx context.Context) error {
		var err error
		records, err = s.scanLocked(ctx, t, func(r *Record) bool {
			return valueEqual(r.Fields[field], value)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if useCache {
		s.cachePutRecords(ctx, key, records)
		s.trackFKKey(table, key)
	}
	return records, nil
}

// BulkReadResult partitions a requested id set into found records and
// missing ids.
type BulkReadResult struct {
	Found   []*Record `json:"found"`
	Missing []int64   `json:"missing,omitempty"`
}

// ReadIDList bulk-reads records by id in a single scan. A partial miss is
// not an error: absent ids report in Missing.
func (s *Store) ReadIDList(ctx context.Context, table string, ids []int64) (*BulkReadResult, error) {
	t, err := s.schemas.Table(table)
	if err != nil {
		return nil, err
	}
	if len(ids) > s.config.BulkReadLimit {
		return nil, fmt.Errorf("%w: %d exceeds limit %d", ErrTooManyIDs, len(ids), s.config.BulkReadLimit)
	}

	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var records []*Record
	err = s.withReadLock(ctx, func(ctx context.Context) error {
		var err error
		records, err = s.scanLocked(ctx, t, func(r *Record) bool {
			return wanted[r.ID]
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &BulkReadResult{Found: records}
	found := make(map[int64]bool, len(records))
	for _, r := range records {
		found[r.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			result.Missing = append(result.Missing, id)
		}
	}
	return result, nil
}

// scanLocked materializes every data row passing the filter. The coarse
// lock must be held.
func (s *Store) scanLocked(ctx context.Context, t *schema.Table, keep func(*Record) bool) ([]*Record, error) {
	headers, err := s.grid.Headers(ctx, t.Name)
	if err != nil {
		return nil, fmt.Errorf("read headers of %s: %w", t.Name, err)
	}
	rows, _, err := s.grid.Size(ctx, t.Name)
	if err != nil {
		return nil, fmt.Errorf("size of %s: %w", t.Name, err)
	}

	records := []*Record{}
	for i := 2; i <= rows; i++ {
		row, err := s.grid.ReadRow(ctx, t.Name, i)
		if err != nil {
			return nil, fmt.Errorf("read row %d of %s: %w", i, t.Name, err)
		}
		if rec := materialize(t, headers, row); keep(rec) {
			records = append(records, rec)
		}
	}
	return records, nil
}

// sortRecords returns a sorted copy, directed by the field's schema type:
// numeric subtraction for numbers, collated compare for strings, false
// before true for booleans, epoch millis for dates.
func sortRecords(records []*Record, field string, t schema.FieldType, desc bool) []*Record {
	sorted := make([]*Record, len(records))
	copy(sorted, records)

	var less func(a, b any) bool
	switch t {
	case schema.Number:
		less = func(a, b any) bool { return asFloat(a) < asFloat(b) }
	case schema.String:
		c := collate.New(language.Und)
		less = func(a, b any) bool { return c.CompareString(asString(a), asString(b)) < 0 }
	case schema.Boolean:
		less = func(a, b any) bool { return !asBool(a) && asBool(b) }
	case schema.Date:
		less = func(a, b any) bool { return asTime(a).UnixMilli() < asTime(b).UnixMilli() }
	default:
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Fields[field], sorted[j].Fields[field]
		if desc {
			return less(b, a)
		}
		return less(a, b)
	})
	return sorted
}

func paginate(records []*Record, page, size int) []*Record {
	if page == 0 {
		return records
	}
	offset := (page - 1) * size
	if offset >= len(records) {
		return []*Record{}
	}
	end := offset + size
	if end > len(records) {
		end = len(records)
	}
	return records[offset:end]
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asTime(v any) time.Time {
	switch d := v.(type) {
	case time.Time:
		return d
	case string:
		if parsed, err := time.Parse(time.RFC3339, d); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// valueEqual compares a stored cell with a caller-supplied value, widening
// numerics so float and integer forms of the same id match.
func valueEqual(a, b any) bool {
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok && bok {
		return at.Equal(bt)
	}
	af, aok := numeric(a)
	bf, bok := numeric(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func numeric(v any) (float64, bool) {
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
