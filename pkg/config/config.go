// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// State backends understood by persist.Open
const (
	BackendFile     = "file"
	BackendBadger   = "badger"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Audit targets for cell-level change records
const (
	AuditNone     = "none"
	AuditSQLite   = "sqlite"
	AuditPostgres = "postgres"
)

// Config represents the application configuration
type Config struct {
	// Optional database connections
	Snowflake *SnowflakeConfig
	Postgres  *PostgresConfig
	SQLite    *SQLiteConfig

	// Persisted state
	StateBackend string
	StatePath    string
	AutoSave     bool

	// Cleaning audit trail
	AuditTarget string
	AuditPath   string

	// Ingestion and profiling
	MaxUploadBytes int64
	OutlierK       float64

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from a .env file (if present) and
// environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	backend := strings.ToLower(getEnv("STATE_BACKEND", BackendFile))
	cfg := &Config{
		StateBackend:   backend,
		StatePath:      getEnv("STATE_PATH", DefaultStatePath(backend)),
		AutoSave:       getEnvAsBool("STATE_AUTOSAVE", true),
		MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_MB", 50)) << 20,
		OutlierK:       getEnvAsFloat("PROFILE_OUTLIER_K", 1.5),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "console")),
		AuditTarget:    strings.ToLower(getEnv("AUDIT_TARGET", AuditNone)),
		AuditPath:      getEnv("AUDIT_PATH", DefaultAuditPath()),
	}

	// Database sections are only loaded when they are configured
	if isSet("SNOWFLAKE_ACCOUNT") {
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load Snowflake configuration: %w", err)
		}
		cfg.Snowflake = snowConfig
	}

	if isSet("POSTGRES_USER") || backend == BackendPostgres || cfg.AuditTarget == AuditPostgres {
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load PostgreSQL configuration: %w", err)
		}
		cfg.Postgres = pgConfig
	}

	if isSet("SQLITE_SOURCE_PATH") {
		cfg.SQLite = LoadSQLiteConfig()
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	switch c.StateBackend {
	case BackendFile, BackendBadger, BackendSQLite:
		if c.StatePath == "" {
			return fmt.Errorf("state path is required for the %s backend", c.StateBackend)
		}
	case BackendPostgres:
		if c.Postgres == nil {
			return errors.New("postgreSQL configuration is required for the postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown state backend: %q", c.StateBackend)
	}

	switch c.AuditTarget {
	case AuditNone, "":
	case AuditSQLite:
		if c.AuditPath == "" {
			return errors.New("audit path is required for the sqlite audit target")
		}
	case AuditPostgres:
		if c.Postgres == nil {
			return errors.New("postgreSQL configuration is required for the postgres audit target")
		}
	default:
		return fmt.Errorf("unknown audit target: %q", c.AuditTarget)
	}

	if c.MaxUploadBytes <= 0 {
		return errors.New("max upload size must be positive")
	}

	if c.OutlierK <= 0 {
		return errors.New("outlier multiplier must be positive")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.LogLevel)
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format: %q", c.LogFormat)
	}

	return nil
}

// DefaultAuditPath returns the per-user location of the sqlite audit database
func DefaultAuditPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".datacleaner", "audit.db")
}

// DefaultStatePath returns the per-user location for a backend's state
func DefaultStatePath(backend string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dir := filepath.Join(home, ".datacleaner")

	switch backend {
	case BackendBadger:
		return filepath.Join(dir, "badger")
	case BackendSQLite:
		return filepath.Join(dir, "state.db")
	default:
		return filepath.Join(dir, "state.json")
	}
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func isSet(key string) bool {
	return os.Getenv(key) != ""
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
