package relation

import (
	"context"
	"fmt"

	"github.com/jacentio/lattice/store"
)

// JoinedRecord is a junction row joined with its resolved target record.
// Relationship is nil when the target reference dangles.
type JoinedRecord struct {
	*store.Record

	// Relationship is the resolved target record.
	Relationship *store.Record `json:"relationship,omitempty"`
}

// JoinOptions configures GetJunctionRecords.
type JoinOptions struct {
	// NoCache bypasses the foreign-key-scoped scan cache.
	NoCache bool

	// IncludeDangling keeps junction rows whose target no longer exists in
	// the result, with a nil Relationship.
	IncludeDangling bool
}

// JoinResult reports the resolved relationship set.
type JoinResult struct {
	Records []*JoinedRecord `json:"records"`

	// JunctionCount is the number of junction rows matching the source.
	JunctionCount int `json:"junctionCount"`

	// ResolvedCount is the number of targets that resolved.
	ResolvedCount int `json:"resolvedCount"`

	// DanglingCount is the number of junction rows whose target is gone.
	DanglingCount int `json:"danglingCount"`
}

// GetJunctionRecords finds the junction rows whose source foreign key
// equals sourceID, bulk-reads the referenced targets, and joins each row
// with its resolved target.
func (e *Engine) GetJunctionRecords(ctx context.Context, table, sourceTable, targetTable string, sourceID int64, opts JoinOptions) (*JoinResult, error) {
	t, err := e.store.Schemas().Table(table)
	if err != nil {
		return nil, err
	}
	srcFK := foreignKey(sourceTable)
	tgtFK := foreignKey(targetTable)
	for _, fk := range []string{srcFK, tgtFK} {
		if _, ok := t.Field(fk); !ok {
			return nil, fmt.Errorf("%w: %s has no column %s", ErrNotJunctionTable, table, fk)
		}
	}

	junctions, err := e.store.ScanByField(ctx, table, srcFK, sourceID, !opts.NoCache)
	if err != nil {
		return nil, err
	}

	targetIDs := make([]int64, 0, len(junctions))
	for _, j := range junctions {
		targetIDs = append(targetIDs, asID(j.Fields[tgtFK]))
	}
	bulk, err := e.store.ReadIDList(ctx, targetTable, targetIDs)
	if err != nil {
		return nil, err
	}
	targets := make(map[int64]*store.Record, len(bulk.Found))
	for _, rec := range bulk.Found {
		targets[rec.ID] = rec
	}

	result := &JoinResult{JunctionCount: len(junctions)}
	for _, j := range junctions {
		target, ok := targets[asID(j.Fields[tgtFK])]
		if !ok {
			result.DanglingCount++
			if !opts.IncludeDangling {
				continue
			}
		} else {
			result.ResolvedCount++
		}
		result.Records = append(result.Records, &JoinedRecord{Record: j, Relationship: target})
	}
	return result, nil
}
