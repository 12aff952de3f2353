// Package sweep provides a scheduled integrity-repair handler for AWS
// Lambda. The substrate has no foreign keys, so junction rows orphaned by
// partial failures accumulate until a sweep removes and archives them.
package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/lattice/relation"
)

// Handler audits every registered junction table on a schedule.
type Handler struct {
	engine *relation.Engine
	logger *slog.Logger
}

// NewHandler creates a sweep handler.
func NewHandler(engine *relation.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: engine, logger: logger}
}

// HandleScheduledSweep runs an integrity audit over every junction table
// known to the registry. Designed to be used as an AWS Lambda handler for
// a scheduled CloudWatch event.
func (h *Handler) HandleScheduledSweep(ctx context.Context, event events.CloudWatchEvent) error {
	h.logger.Info("integrity sweep starting", "eventID", event.ID, "time", event.Time)

	totalRemoved := 0
	for _, table := range h.engine.JunctionTables() {
		removed, err := h.sweepTable(ctx, table)
		if err != nil {
			h.logger.Error("sweep failed",
				"table", table,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
		totalRemoved += removed
	}

	h.logger.Info("integrity sweep completed", "removed", totalRemoved)
	return nil
}

// sweepTable audits one junction table against its registered history
// table.
func (h *Handler) sweepTable(ctx context.Context, table string) (int, error) {
	t, err := h.engine.Store().Schemas().Table(table)
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", table, err)
	}

	removed, err := h.engine.CheckTableIntegrity(ctx, table, t.History)
	if err != nil {
		return removed, fmt.Errorf("audit %s: %w", table, err)
	}
	if removed > 0 {
		h.logger.Info("orphaned junction rows repaired",
			"table", table,
			"removed", removed,
		)
	}
	return removed, nil
}
