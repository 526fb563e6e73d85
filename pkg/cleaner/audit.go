// pkg/cleaner/audit.go
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/converter"
	"github.com/David-Botos/data-cleaner/pkg/model"
)

// AuditSink receives the cell-level changes of every applied operation
type AuditSink interface {
	RecordChanges(ctx context.Context, kind model.OperationKind, changes []model.CellChange) error
}

// NopAuditSink discards changes
type NopAuditSink struct{}

// RecordChanges implements AuditSink
func (NopAuditSink) RecordChanges(context.Context, model.OperationKind, []model.CellChange) error {
	return nil
}

// SQLAuditSink writes changes to the cleaned_on_ingress tracking table.
// It works against PostgreSQL and SQLite handles opened through sqlx.
type SQLAuditSink struct {
	db      *sqlx.DB
	dataset string
	logger  *zap.Logger
}

// NewSQLAuditSink creates the sink and ensures the tracking table exists
func NewSQLAuditSink(ctx context.Context, db *sqlx.DB, dataset string, logger *zap.Logger) (*SQLAuditSink, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	sink := &SQLAuditSink{
		db:      db,
		dataset: dataset,
		logger:  logger,
	}

	if err := sink.setupCleaningTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup cleaning table: %w", err)
	}
	return sink, nil
}

// setupCleaningTable ensures the cleaned_on_ingress tracking table exists
func (s *SQLAuditSink) setupCleaningTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	idColumn := "id SERIAL PRIMARY KEY"
	timestampType := "TIMESTAMP WITH TIME ZONE"
	if s.db.DriverName() == "sqlite" {
		idColumn = "id INTEGER PRIMARY KEY AUTOINCREMENT"
		timestampType = "TIMESTAMP"
	}

	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS cleaned_on_ingress (
			%s,
			dataset_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			row_index INTEGER NOT NULL,
			original_value TEXT,
			new_value TEXT,
			cleaning_operation TEXT NOT NULL,
			cleaning_reason TEXT NOT NULL,
			cleaned_at %s DEFAULT CURRENT_TIMESTAMP
		)
	`, idColumn, timestampType)
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	s.logger.Info("Ensured cleaned_on_ingress table exists")
	return nil
}

// RecordChanges batch inserts changes into the tracking table
func (s *SQLAuditSink) RecordChanges(ctx context.Context, kind model.OperationKind, changes []model.CellChange) (err error) {
	if len(changes) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO cleaned_on_ingress
		(dataset_name, column_name, row_index, original_value, new_value,
		 cleaning_operation, cleaning_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, change := range changes {
		_, err = stmt.ExecContext(ctx,
			s.dataset,
			change.ColumnName,
			change.RowIndex,
			toNullableString(change.OriginalValue),
			toNullableString(change.NewValue),
			change.Operation,
			change.Reason,
		)
		if err != nil {
			return fmt.Errorf("failed to insert cleaning change: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Recorded cleaning changes",
		zap.String("operation", string(kind)),
		zap.Int("count", len(changes)))
	return nil
}

// toNullableString safely converts a cell value to a nullable string
func toNullableString(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := converter.ToText(v)
	return &s
}
