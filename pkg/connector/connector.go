// pkg/connector/connector.go
package connector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/converter"
	"github.com/David-Botos/data-cleaner/pkg/model"
)

// ErrInvalidIdentifier is returned for schema or table names that are not
// plain SQL identifiers
var ErrInvalidIdentifier = errors.New("invalid identifier")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// DatabaseConnector defines the interface for database sources that can
// feed the dataset holder
type DatabaseConnector interface {
	// Name identifies the source in logs and shell output
	Name() string

	// DB returns the underlying database connection
	DB() *sqlx.DB

	// Validate verifies the connection
	Validate(ctx context.Context) error

	// Close closes the connection and releases resources
	Close() error

	// GetTables lists the tables of a schema
	GetTables(ctx context.Context, schema string) ([]string, error)

	// LoadTable reads a table into a snapshot; limit <= 0 reads every row
	LoadTable(ctx context.Context, schema, table string, limit int) (*model.Snapshot, error)
}

// ConnStats contains standardized connection statistics
type ConnStats struct {
	OpenConnections int
	InUse           int
	Idle            int
	MaxOpenConns    int
}

// GetConnectionStats returns connection pool statistics for logging
func GetConnectionStats(db *sql.DB) ConnStats {
	stats := db.Stats()
	return ConnStats{
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		MaxOpenConns:    stats.MaxOpenConnections,
	}
}

// LogConnectionStats logs connection pool statistics
func LogConnectionStats(logger *zap.Logger, name string, db *sql.DB) {
	stats := GetConnectionStats(db)
	logger.Debug("Connection pool stats",
		zap.String("database", name),
		zap.Int("open_connections", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle),
		zap.Int("max_open", stats.MaxOpenConns),
	)
}

// PingWithTimeout attempts to ping a database with a timeout
func PingWithTimeout(ctx context.Context, db *sqlx.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if pingCtx.Err() != nil {
			return fmt.Errorf("ping timed out after %v: %w", timeout, err)
		}
		return err
	}
	return nil
}

// ApplyConnectionSettings configures database connection pool settings
func ApplyConnectionSettings(db *sqlx.DB, maxOpen, maxIdle int, maxLifetime, maxIdleTime time.Duration) {
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime > 0 {
		db.SetConnMaxLifetime(maxLifetime)
	}
	if maxIdleTime > 0 {
		db.SetConnMaxIdleTime(maxIdleTime)
	}
}

// QualifiedName validates and joins a schema and table name. An empty
// schema yields the bare table name.
func QualifiedName(schema, table string) (string, error) {
	if !identifierPattern.MatchString(table) {
		return "", fmt.Errorf("%w: table %q", ErrInvalidIdentifier, table)
	}
	if schema == "" {
		return table, nil
	}
	if !identifierPattern.MatchString(schema) {
		return "", fmt.Errorf("%w: schema %q", ErrInvalidIdentifier, schema)
	}
	return schema + "." + table, nil
}

// selectTable builds the SELECT used by LoadTable
func selectTable(schema, table string, limit int) (string, error) {
	name, err := QualifiedName(schema, table)
	if err != nil {
		return "", err
	}
	query := "SELECT * FROM " + name
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return query, nil
}

// ReadSnapshot runs a query and collects its result set into a snapshot.
// Column order follows the result set; cell values are normalized the
// same way file ingestion normalizes them.
func ReadSnapshot(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) (*model.Snapshot, error) {
	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := make([]model.Row, 0)
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(result), err)
		}
		row := make(model.Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return model.NewSnapshot(columns, result), nil
}

// normalizeValue maps driver values onto the cell types used by snapshots
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return converter.ParseField(string(val))
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case int:
		return float64(val)
	case float32:
		return float64(val)
	default:
		return val
	}
}
