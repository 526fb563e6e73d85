// pkg/connector/sqlite.go
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/David-Botos/data-cleaner/pkg/config"
	"github.com/David-Botos/data-cleaner/pkg/model"
)

// SQLiteConnector implements the DatabaseConnector interface for a local
// SQLite file
type SQLiteConnector struct {
	db     *sqlx.DB
	logger *zap.Logger
	cfg    *config.SQLiteConfig
}

// NewSQLiteConnector opens the database file named by the configuration
func NewSQLiteConnector(ctx context.Context, cfg *config.SQLiteConfig, logger *zap.Logger) (*SQLiteConnector, error) {
	if cfg == nil || cfg.Path == "" {
		return nil, fmt.Errorf("sqlite source is not configured")
	}
	if logger == nil {
		logger = zap.L()
	}
	logger = logger.Named("sqlite-connector")

	logger.Info("Opening SQLite source", zap.String("path", cfg.Path))

	// mode=ro keeps imports from creating or touching the source file
	db, err := sqlx.Open("sqlite", "file:"+cfg.Path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite connection: %w", err)
	}

	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open SQLite source: %w", err)
	}

	return &SQLiteConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}, nil
}

func (c *SQLiteConnector) Name() string { return "sqlite" }

// DB returns the underlying database connection
func (c *SQLiteConnector) DB() *sqlx.DB {
	return c.db
}

// Validate verifies the file is a readable SQLite database
func (c *SQLiteConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.GetContext(ctx, &version, "SELECT sqlite_version()"); err != nil {
		return fmt.Errorf("failed to query SQLite version: %w", err)
	}
	c.logger.Info("SQLite source validated",
		zap.String("version", version),
		zap.String("path", c.cfg.Path))
	return nil
}

// Close closes the database connection
func (c *SQLiteConnector) Close() error {
	c.logger.Info("Closing SQLite source")
	return c.db.Close()
}

// GetTables lists user tables. SQLite has one schema per attached file;
// an empty schema means main.
func (c *SQLiteConnector) GetTables(ctx context.Context, schema string) ([]string, error) {
	if schema == "" {
		schema = "main"
	}
	if _, err := QualifiedName("", schema); err != nil {
		return nil, err
	}

	var tables []string
	err := c.db.SelectContext(ctx, &tables, fmt.Sprintf(`
		SELECT name FROM %s.sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%%'
		ORDER BY name
	`, schema))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tables from schema %s: %w", schema, err)
	}
	return tables, nil
}

// LoadTable reads a table into a snapshot
func (c *SQLiteConnector) LoadTable(ctx context.Context, schema, table string, limit int) (*model.Snapshot, error) {
	query, err := selectTable(schema, table, limit)
	if err != nil {
		return nil, err
	}

	queryCtx := ctx
	if c.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, c.cfg.QueryTimeout)
		defer cancel()
	}

	snapshot, err := ReadSnapshot(queryCtx, c.db, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", table, err)
	}
	c.logger.Info("Loaded table",
		zap.String("table", table),
		zap.Int("rows", snapshot.Len()))
	return snapshot, nil
}
