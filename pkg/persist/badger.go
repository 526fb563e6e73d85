// pkg/persist/badger.go
package persist

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// BadgerConfig holds configuration for a BadgerDB state store
type BadgerConfig struct {
	Path       string // Directory for database files; ignored when InMemory
	InMemory   bool   // No disk persistence, for tests
	SyncWrites bool
}

// BadgerBackend stores blobs as keys in an embedded BadgerDB
type BadgerBackend struct {
	db     *badger.DB
	logger *zap.Logger
}

// badgerLogger adapts zap to BadgerDB's Logger interface
type badgerLogger struct {
	sugar *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}
func (l *badgerLogger) Infof(format string, args ...interface{})  { l.sugar.Debugf(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

// OpenBadgerBackend opens a BadgerDB at the configured path, or in memory
func OpenBadgerBackend(cfg BadgerConfig, logger *zap.Logger) (*BadgerBackend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{sugar: logger.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug("Opened badger state store",
		zap.String("path", cfg.Path),
		zap.Bool("in_memory", cfg.InMemory))
	return &BadgerBackend{db: db, logger: logger}, nil
}

func (b *BadgerBackend) Load(ctx context.Context, name string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %q: %w", name, err)
	}
	return data, true, nil
}

func (b *BadgerBackend) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(name), data)
	})
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", name, err)
	}
	return nil
}

func (b *BadgerBackend) Close() error {
	return b.db.Close()
}
