// cmd/datacleaner/app.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/cleaner"
	"github.com/David-Botos/data-cleaner/pkg/config"
	"github.com/David-Botos/data-cleaner/pkg/connector"
	"github.com/David-Botos/data-cleaner/pkg/converter"
	"github.com/David-Botos/data-cleaner/pkg/ingest"
	"github.com/David-Botos/data-cleaner/pkg/logging"
	"github.com/David-Botos/data-cleaner/pkg/persist"
	"github.com/David-Botos/data-cleaner/pkg/profile"
	"github.com/David-Botos/data-cleaner/pkg/shell"
	"github.com/David-Botos/data-cleaner/pkg/store"
)

// auditDataset labels rows written to the audit table
const auditDataset = "workbench"

// app holds everything a command needs
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	backend persist.Backend
	store   *store.Store
	metrics *cleaner.Metrics
	auditDB *sqlx.DB
}

// newApp loads configuration, opens the state backend and restores the
// persisted state
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Debug("Configuration loaded",
		zap.String("state_backend", cfg.StateBackend),
		zap.String("state_path", cfg.StatePath),
		zap.Bool("autosave", cfg.AutoSave),
		zap.String("audit_target", cfg.AuditTarget))

	backend, err := persist.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open state backend: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		backend: backend,
		metrics: cleaner.NewMetrics(logger),
	}

	audit, err := a.openAuditSink(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	dataCleaner := cleaner.NewDataCleaner(converter.NewTypeConverter(logger), audit, logger.Named("cleaner")).
		WithMetrics(a.metrics)
	a.store = store.New(logger).
		WithCleaner(dataCleaner).
		WithProfiler(profile.NewProfiler(logger, cfg.OutlierK)).
		WithBackend(backend, cfg.AutoSave)

	if err := a.store.Restore(ctx); err != nil {
		// Unreadable state falls back to the initial state
		logger.Warn("Failed to restore state, starting fresh", zap.Error(err))
	}
	return a, nil
}

// openAuditSink connects the configured audit target. It returns a nil
// sink when auditing is off.
func (a *app) openAuditSink(ctx context.Context) (cleaner.AuditSink, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch a.cfg.AuditTarget {
	case config.AuditSQLite:
		if err := os.MkdirAll(filepath.Dir(a.cfg.AuditPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create audit directory: %w", err)
		}
		db, err = sqlx.Open("sqlite", a.cfg.AuditPath)
		if err == nil {
			db.SetMaxOpenConns(1)
		}
	case config.AuditPostgres:
		db, err = sqlx.Open("postgres", a.cfg.Postgres.ConnectionString())
		if err == nil {
			connector.ApplyConnectionSettings(db, a.cfg.Postgres.MaxOpenConns, a.cfg.Postgres.MaxIdleConns,
				a.cfg.Postgres.ConnMaxLifetime, a.cfg.Postgres.ConnMaxIdleTime)
		}
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	sink, err := cleaner.NewSQLAuditSink(ctx, db, auditDataset, a.logger.Named("audit"))
	if err != nil {
		db.Close()
		return nil, err
	}
	a.auditDB = db
	return sink, nil
}

// newShell builds the interactive shell over the app's store
func (a *app) newShell() *shell.Shell {
	loader := ingest.NewLoader(a.cfg.MaxUploadBytes, a.logger)
	sh := shell.New(a.store, loader, os.Stdout, a.logger).
		WithMetrics(a.metrics)
	if a.cfg.Postgres != nil || a.cfg.Snowflake != nil || a.cfg.SQLite != nil {
		sh.WithSources(connector.NewConnectorFactory(a.cfg, a.logger))
	}
	return sh
}

// metricsRouter serves the cleaning counters at /metrics
func (a *app) metricsRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.metrics.Registry(), promhttp.HandlerOpts{})))
	return router
}

// serveMetrics exposes the cleaning counters over HTTP. The returned
// function shuts the server down.
func (a *app) serveMetrics(addr string) func() {
	server := &http.Server{
		Addr:              addr,
		Handler:           a.metricsRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("Serving metrics", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("Metrics server stopped", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			a.logger.Warn("Failed to stop metrics server", zap.Error(err))
		}
	}
}

// saveState writes state explicitly when auto-save is off
func (a *app) saveState(ctx context.Context) error {
	if a.cfg.AutoSave {
		return nil
	}
	return a.store.Save(ctx)
}

// Close releases the backend and audit connections
func (a *app) Close() {
	if a.auditDB != nil {
		if err := a.auditDB.Close(); err != nil {
			a.logger.Warn("Failed to close audit database", zap.Error(err))
		}
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Warn("Failed to close state backend", zap.Error(err))
	}
	_ = a.logger.Sync()
}
