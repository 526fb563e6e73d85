// pkg/cleaner/cleaner.go
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/converter"
	"github.com/David-Botos/data-cleaner/pkg/model"
)

var (
	// ErrNilSnapshot is returned when there is no dataset to clean
	ErrNilSnapshot = errors.New("no dataset loaded")
	// ErrUnknownColumn is returned when an operation targets a missing column
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNotNumeric is returned when a numeric-only operation targets a text column
	ErrNotNumeric = errors.New("column is not numeric")
	// ErrInvalidParameter is returned for unsupported strategies or methods
	ErrInvalidParameter = errors.New("invalid operation parameter")
)

// Result is the outcome of applying one operation
type Result struct {
	Snapshot     *model.Snapshot    // New snapshot; the input is never modified
	Description  string             // Human-readable summary for the ledger
	Changes      []model.CellChange // Cell-level audit trail
	RowsAffected int                // Rows that had at least one cell rewritten or were removed
}

// DataCleaner applies typed cleaning operations to snapshots
type DataCleaner struct {
	converter *converter.TypeConverter
	audit     AuditSink
	metrics   *Metrics
	logger    *zap.Logger
}

// NewDataCleaner creates a new DataCleaner. A nil audit sink disables
// change recording.
func NewDataCleaner(conv *converter.TypeConverter, audit AuditSink, logger *zap.Logger) *DataCleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if conv == nil {
		conv = converter.NewTypeConverter(logger)
	}
	if audit == nil {
		audit = NopAuditSink{}
	}
	return &DataCleaner{
		converter: conv,
		audit:     audit,
		metrics:   NewMetrics(logger),
		logger:    logger,
	}
}

// WithMetrics replaces the metrics tracker
func (c *DataCleaner) WithMetrics(m *Metrics) *DataCleaner {
	if m != nil {
		c.metrics = m
	}
	return c
}

// Metrics returns the metrics tracker
func (c *DataCleaner) Metrics() *Metrics {
	return c.metrics
}

// Apply runs op against a copy of snapshot and returns the transformed copy
func (c *DataCleaner) Apply(ctx context.Context, snapshot *model.Snapshot, op model.Operation) (*Result, error) {
	return c.apply(ctx, snapshot, op, true)
}

// apply runs op. With record unset the run leaves no trace in the metrics
// or the audit sink.
func (c *DataCleaner) apply(ctx context.Context, snapshot *model.Snapshot, op model.Operation, record bool) (*Result, error) {
	if snapshot == nil {
		return nil, ErrNilSnapshot
	}
	if op == nil {
		return nil, fmt.Errorf("%w: operation is nil", ErrInvalidParameter)
	}

	if column := op.TargetColumn(); column != "" && !snapshot.HasColumn(column) {
		err := fmt.Errorf("%w: %s", ErrUnknownColumn, column)
		if record {
			c.metrics.RecordFailed(op.Kind(), err)
		}
		return nil, err
	}

	start := time.Now()
	working := snapshot.Clone()
	var (
		result *Result
		err    error
	)

	switch v := op.(type) {
	case model.RemoveDuplicates:
		result, err = removeDuplicates(working)
	case model.FillMissing:
		result, err = c.fillMissing(working, v)
	case model.DropColumn:
		result, err = dropColumn(working, v)
	case model.ConvertType:
		result, err = c.convertType(working, v)
	case model.Normalize:
		result, err = normalize(working, v)
	case model.EncodeCategorical:
		result, err = encodeCategorical(working, v)
	default:
		err = fmt.Errorf("%w: unsupported operation %s", ErrInvalidParameter, op.Kind())
	}
	if err != nil {
		c.logger.Debug("Cleaning operation failed",
			zap.String("operation", string(op.Kind())),
			zap.String("column", op.TargetColumn()),
			zap.Error(err))
		if record {
			c.metrics.RecordFailed(op.Kind(), err)
		}
		return nil, err
	}

	if result.Description == "" {
		result.Description = op.Describe()
	}
	if !record {
		return result, nil
	}
	c.metrics.RecordApplied(op.Kind(), snapshot.Len(), result, time.Since(start))

	// If changes were made, record them
	if len(result.Changes) > 0 {
		if err := c.audit.RecordChanges(ctx, op.Kind(), result.Changes); err != nil {
			c.logger.Warn("Failed to record cleaning changes",
				zap.String("operation", string(op.Kind())),
				zap.Int("count", len(result.Changes)),
				zap.Error(err))
		}
	}

	c.logger.Info("Applied cleaning operation",
		zap.String("operation", string(op.Kind())),
		zap.String("column", op.TargetColumn()),
		zap.Int("rows_affected", result.RowsAffected),
		zap.Int("rows", result.Snapshot.Len()))
	return result, nil
}

// Replay applies each operation in order starting from snapshot. It stops
// at the first failing operation and returns the index that failed along
// with the last good snapshot. Replayed operations are not counted in the
// metrics and their changes are not audited again.
func (c *DataCleaner) Replay(ctx context.Context, snapshot *model.Snapshot, ops []model.Operation) (*model.Snapshot, int, error) {
	current := snapshot
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return current, i, err
		}
		result, err := c.apply(ctx, current, op, false)
		if err != nil {
			return current, i, err
		}
		current = result.Snapshot
	}
	return current, -1, nil
}
