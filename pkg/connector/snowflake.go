// pkg/connector/snowflake.go
package connector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	sf "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/config"
	"github.com/David-Botos/data-cleaner/pkg/model"
)

// SnowflakeConnector implements the DatabaseConnector interface for Snowflake
type SnowflakeConnector struct {
	db     *sqlx.DB
	logger *zap.Logger
	cfg    *config.SnowflakeConfig
}

// NewSnowflakeConnector creates a new Snowflake connection
func NewSnowflakeConnector(ctx context.Context, cfg *config.SnowflakeConfig, logger *zap.Logger) (*SnowflakeConnector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("snowflake is not configured")
	}
	if logger == nil {
		logger = zap.L()
	}
	logger = logger.Named("snowflake-connector")

	dsn, err := snowflakeDSN(cfg)
	if err != nil {
		return nil, err
	}

	// Log connection attempt (without credentials)
	logger.Info("Connecting to Snowflake",
		zap.String("account", cfg.Account),
		zap.String("user", cfg.User),
		zap.String("database", cfg.Database),
		zap.String("warehouse", cfg.Warehouse),
		zap.String("role", cfg.Role))

	db, err := sqlx.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Snowflake connection: %w", err)
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
	if err := PingWithTimeout(ctx, db, 10*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Snowflake: %w", err)
	}

	connector := &SnowflakeConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}

	LogConnectionStats(logger, cfg.Database, db.DB)
	return connector, nil
}

// snowflakeDSN builds the driver DSN with Snowflake's DSN builder
func snowflakeDSN(cfg *config.SnowflakeConfig) (string, error) {
	sfConfig := &sf.Config{
		Account:       cfg.Account,
		User:          cfg.User,
		Password:      cfg.Password,
		Database:      cfg.Database,
		Warehouse:     cfg.Warehouse,
		Role:          cfg.Role,
		Authenticator: cfg.Authenticator,
	}
	if cfg.QueryTimeout > 0 {
		timeout := fmt.Sprintf("%d", int(cfg.QueryTimeout.Seconds()))
		sfConfig.Params = map[string]*string{
			"STATEMENT_TIMEOUT_IN_SECONDS": &timeout,
		}
	}

	dsn, err := sf.DSN(sfConfig)
	if err != nil {
		return "", fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}
	return dsn, nil
}

func (c *SnowflakeConnector) Name() string { return "snowflake" }

// DB returns the underlying database connection
func (c *SnowflakeConnector) DB() *sqlx.DB {
	return c.db
}

// Validate verifies the Snowflake connection and the configured schemas
func (c *SnowflakeConnector) Validate(ctx context.Context) error {
	var role, database, warehouse string
	err := c.db.QueryRowContext(ctx, "SELECT CURRENT_ROLE(), CURRENT_DATABASE(), CURRENT_WAREHOUSE()").Scan(
		&role, &database, &warehouse)
	if err != nil {
		return fmt.Errorf("failed to verify Snowflake access: %w", err)
	}

	c.logger.Info("Connected to Snowflake",
		zap.String("role", role),
		zap.String("database", database),
		zap.String("warehouse", warehouse))

	if c.cfg.Database != "" && !strings.EqualFold(database, c.cfg.Database) {
		return fmt.Errorf("connected to wrong database: %s (expected: %s)",
			database, c.cfg.Database)
	}

	if len(c.cfg.Schemas) == 0 {
		return nil
	}
	missingSchemas, err := c.verifySchemas(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify schemas: %w", err)
	}
	if len(missingSchemas) > 0 {
		c.logger.Warn("Some configured schemas not found",
			zap.Strings("missing_schemas", missingSchemas))
	}
	return nil
}

// Close closes the database connection
func (c *SnowflakeConnector) Close() error {
	c.logger.Info("Closing Snowflake connection")
	LogConnectionStats(c.logger, c.cfg.Database, c.db.DB)
	return c.db.Close()
}

// verifySchemas reports configured schemas missing from the database
func (c *SnowflakeConnector) verifySchemas(ctx context.Context) ([]string, error) {
	var found []string
	err := c.db.SelectContext(ctx, &found,
		"SELECT schema_name FROM information_schema.schemata")
	if err != nil {
		return nil, fmt.Errorf("failed to query schemas: %w", err)
	}

	schemas := make(map[string]bool, len(found))
	for _, name := range found {
		schemas[strings.ToUpper(name)] = true
	}

	var missingSchemas []string
	for _, schema := range c.cfg.Schemas {
		upperSchema := strings.ToUpper(schema)
		if !schemas[upperSchema] {
			missingSchemas = append(missingSchemas, upperSchema)
		}
	}
	return missingSchemas, nil
}

// GetTables retrieves all tables in a schema
func (c *SnowflakeConnector) GetTables(ctx context.Context, schema string) ([]string, error) {
	var tables []string
	err := c.db.SelectContext(ctx, &tables, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, strings.ToUpper(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tables from schema %s: %w", schema, err)
	}
	return tables, nil
}

// LoadTable reads a table into a snapshot
func (c *SnowflakeConnector) LoadTable(ctx context.Context, schema, table string, limit int) (*model.Snapshot, error) {
	query, err := selectTable(schema, table, limit)
	if err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, c.cfg.QueryTimeout+10*time.Second)
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
