// pkg/persist/sql.go
package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// SQLBackend stores blobs in an app_state table. It works against
// PostgreSQL and SQLite handles opened through sqlx.
type SQLBackend struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSQLBackend takes ownership of db and ensures the state table exists
func NewSQLBackend(ctx context.Context, db *sqlx.DB, logger *zap.Logger) (*SQLBackend, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &SQLBackend{db: db, logger: logger}
	if err := b.setupStateTable(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup state table: %w", err)
	}
	return b, nil
}

func (b *SQLBackend) setupStateTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := b.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS app_state (
			name TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	b.logger.Debug("Ensured app_state table exists", zap.String("driver", b.db.DriverName()))
	return nil
}

func (b *SQLBackend) Load(ctx context.Context, name string) ([]byte, bool, error) {
	var payload string
	err := b.db.GetContext(ctx, &payload,
		b.db.Rebind("SELECT payload FROM app_state WHERE name = ?"), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %q: %w", name, err)
	}
	return []byte(payload), true, nil
}

func (b *SQLBackend) Save(ctx context.Context, name string, data []byte) error {
	_, err := b.db.ExecContext(ctx, b.db.Rebind(`
		INSERT INTO app_state (name, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE
		SET payload = excluded.payload, updated_at = excluded.updated_at
	`), name, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", name, err)
	}
	return nil
}

func (b *SQLBackend) Close() error {
	return b.db.Close()
}
