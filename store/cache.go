package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jacentio/lattice/internal/cachekey"
)

// The cache is read-through and write-invalidate. Full scans cache under
// <table>_all, foreign-key-filtered scans under <table>_FK_<value>_all.
// Every successful mutation evicts the table's full-scan key plus the
// foreign-key-scoped keys reachable from the mutated rows. The backend is
// shared across processes, so FK keys are derived from the rows' own
// foreign-key values rather than from per-process bookkeeping alone.

// cacheGet loads and decodes the value at key into out, reporting a hit.
// Backend failures count as misses and are logged.
func (s *Store) cacheGet(ctx context.Context, key string, out any) bool {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.config.Logger.Warn("cache get failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.config.Logger.Warn("cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

// cachePut stores value at key, best-effort. Payloads over the configured
// size threshold are skipped; backend rejections are logged and swallowed.
func (s *Store) cachePut(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.config.Logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if len(data) > s.config.CacheMaxBytes {
		s.config.Logger.Debug("cache put skipped, payload too large",
			"key", key, "bytes", len(data))
		return
	}
	if err := s.cache.Put(ctx, key, data, s.config.CacheTTL); err != nil {
		s.config.Logger.Warn("cache put failed", "key", key, "error", err)
	}
}

// dateCell wraps time.Time cells in cached payloads. A plain JSON round
// trip would hand cached readers RFC 3339 strings where uncached readers
// get time.Time.
const dateCell = "$date"

// cacheGetRecords loads a cached record slice, restoring wrapped date
// cells to time.Time.
func (s *Store) cacheGetRecords(ctx context.Context, key string) ([]*Record, bool) {
	var records []*Record
	if !s.cacheGet(ctx, key, &records) {
		return nil, false
	}
	for _, r := range records {
		decodeCells(r.Fields)
	}
	return records, true
}

// cachePutRecords stores a record slice with date cells wrapped. The
// records themselves are left untouched.
func (s *Store) cachePutRecords(ctx context.Context, key string, records []*Record) {
	encoded := make([]*Record, len(records))
	for i, r := range records {
		clone := *r
		clone.Fields = encodeCells(r.Fields)
		encoded[i] = &clone
	}
	s.cachePut(ctx, key, encoded)
}

func encodeCells(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for name, value := range fields {
		if d, ok := value.(time.Time); ok {
			out[name] = map[string]any{dateCell: d.Format(time.RFC3339Nano)}
			continue
		}
		out[name] = value
	}
	return out
}

func decodeCells(fields map[string]any) {
	for name, value := range fields {
		wrapped, ok := value.(map[string]any)
		if !ok || len(wrapped) != 1 {
			continue
		}
		raw, ok := wrapped[dateCell].(string)
		if !ok {
			continue
		}
		if d, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			fields[name] = d
		}
	}
}

// invalidate evicts the table's scan cache after a successful mutation:
// the full-scan key, the foreign-key-scoped keys derived from the mutated
// rows' foreign-key values, and any keys this process tracked for scans on
// non-foreign-key fields. Deriving keys from the rows evicts entries
// written by other processes sharing the cache backend.
func (s *Store) invalidate(ctx context.Context, table string, rows ...map[string]any) {
	s.evict(ctx, cachekey.TableAll(table))
	for _, fields := range rows {
		for name, value := range fields {
			if value == nil || !strings.HasSuffix(name, "_id") {
				continue
			}
			s.evict(ctx, cachekey.ForeignKeyAll(table, value))
		}
	}
	for _, key := range s.takeFKKeys(table) {
		s.evict(ctx, key)
	}
}

func (s *Store) evict(ctx context.Context, key string) {
	if err := s.cache.Remove(ctx, key); err != nil {
		s.config.Logger.Warn("cache invalidation failed", "key", key, "error", err)
	}
}

// trackFKKey remembers a scoped cache key so the next mutation on the
// table can evict it. Covers scans on fields other than foreign keys,
// whose keys invalidate cannot derive from the mutated row.
func (s *Store) trackFKKey(table, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fkKeys[table] == nil {
		s.fkKeys[table] = make(map[string]struct{})
	}
	s.fkKeys[table][key] = struct{}{}
}

// takeFKKeys returns and clears the tracked foreign-key keys for a table.
func (s *Store) takeFKKeys(table string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.fkKeys[table]))
	for key := range s.fkKeys[table] {
		keys = append(keys, key)
	}
	delete(s.fkKeys, table)
	return keys
}
