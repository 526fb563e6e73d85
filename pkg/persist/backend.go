// pkg/persist/backend.go
package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/David-Botos/data-cleaner/pkg/config"
)

// Backend stores named state blobs. A missing blob is reported with
// found=false and a nil error.
type Backend interface {
	Load(ctx context.Context, name string) (data []byte, found bool, err error)
	Save(ctx context.Context, name string, data []byte) error
	Close() error
}

// Open creates the backend selected by the configuration
func Open(cfg *config.Config, logger *zap.Logger) (Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("persist")

	switch cfg.StateBackend {
	case config.BackendMemory:
		return NewMemoryBackend(), nil

	case config.BackendFile:
		return NewFileBackend(cfg.StatePath), nil

	case config.BackendBadger:
		return OpenBadgerBackend(BadgerConfig{Path: cfg.StatePath, SyncWrites: true}, logger)

	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
		db, err := sqlx.Open("sqlite", cfg.StatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite state database: %w", err)
		}
		// SQLite allows one writer at a time
		db.SetMaxOpenConns(1)
		return NewSQLBackend(context.Background(), db, logger)

	case config.BackendPostgres:
		if cfg.Postgres == nil {
			return nil, fmt.Errorf("postgres backend selected without postgres configuration")
		}
		db, err := sqlx.Open("postgres", cfg.Postgres.ConnectionString())
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres state database: %w", err)
		}
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
		db.SetConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime)
		return NewSQLBackend(context.Background(), db, logger)

	default:
		return nil, fmt.Errorf("unknown state backend: %q", cfg.StateBackend)
	}
}
