// pkg/connector/postgres.go
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/config"
	"github.com/David-Botos/data-cleaner/pkg/model"
)

// PostgresConnector implements the DatabaseConnector interface for PostgreSQL
type PostgresConnector struct {
	db     *sqlx.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
}

// NewPostgresConnector creates and initializes a new PostgreSQL connector
func NewPostgresConnector(ctx context.Context, cfg *config.PostgresConfig, logger *zap.Logger) (*PostgresConnector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("postgreSQL is not configured")
	}
	if logger == nil {
		logger = zap.L()
	}
	logger = logger.Named("postgres-connector")

	// Log connection attempt
	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sqlx.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	// Configure connection pool
	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Verify connection
	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Set statement timeout if configured
	if cfg.StatementTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds()),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	connector := &PostgresConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}

	LogConnectionStats(logger, cfg.Database, db.DB)
	return connector, nil
}

func (c *PostgresConnector) Name() string { return "postgres" }

// DB returns the underlying database connection
func (c *PostgresConnector) DB() *sqlx.DB {
	return c.db
}

// Validate verifies the PostgreSQL connection
func (c *PostgresConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.GetContext(ctx, &version, "SELECT version()"); err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}

	c.logger.Info("PostgreSQL connection validated",
		zap.String("version", version),
		zap.String("database", c.cfg.Database),
		zap.String("host", c.cfg.Host),
		zap.Int("port", c.cfg.Port))
	return nil
}

// Close closes the database connection
func (c *PostgresConnector) Close() error {
	c.logger.Info("Closing PostgreSQL connection")
	LogConnectionStats(c.logger, c.cfg.Database, c.db.DB)
	return c.db.Close()
}

// GetTables retrieves all base tables in a schema
func (c *PostgresConnector) GetTables(ctx context.Context, schema string) ([]string, error) {
	if schema == "" {
		schema = "public"
	}
	var tables []string
	err := c.db.SelectContext(ctx, &tables, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tables from schema %s: %w", schema, err)
	}
	return tables, nil
}

// LoadTable reads a table into a snapshot
func (c *PostgresConnector) LoadTable(ctx context.Context, schema, table string, limit int) (*model.Snapshot, error) {
	query, err := selectTable(schema, table, limit)
	if err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, c.cfg.StatementTimeout+5*time.Second)
	defer cancel()

	snapshot, err := ReadSnapshot(queryCtx, c.db, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s.%s: %w", schema, table, err)
	}
	c.logger.Info("Loaded table",
		zap.String("schema", schema),
		zap.String("table", table),
		zap.Int("rows", snapshot.Len()))
	return snapshot, nil
}
