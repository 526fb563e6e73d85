// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/config"
)

// Source names accepted by ConnectorFactory.Create
const (
	SourcePostgres  = "postgres"
	SourceSnowflake = "snowflake"
	SourceSQLite    = "sqlite"
)

// ConnectorFactory creates database connectors
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// Sources lists the sources that are configured
func (f *ConnectorFactory) Sources() []string {
	var sources []string
	if f.cfg.Postgres != nil {
		sources = append(sources, SourcePostgres)
	}
	if f.cfg.Snowflake != nil {
		sources = append(sources, SourceSnowflake)
	}
	if f.cfg.SQLite != nil {
		sources = append(sources, SourceSQLite)
	}
	return sources
}

// Create opens a connector for the named source
func (f *ConnectorFactory) Create(ctx context.Context, source string) (DatabaseConnector, error) {
	f.logger.Info("Creating connector", zap.String("source", source))

	var (
		connector DatabaseConnector
		err       error
	)
	switch strings.ToLower(source) {
	case SourcePostgres:
		connector, err = NewPostgresConnector(ctx, f.cfg.Postgres, f.logger)
	case SourceSnowflake:
		connector, err = NewSnowflakeConnector(ctx, f.cfg.Snowflake, f.logger)
	case SourceSQLite:
		connector, err = NewSQLiteConnector(ctx, f.cfg.SQLite, f.logger)
	default:
		return nil, fmt.Errorf("unknown source %q (configured: %s)", source, strings.Join(f.Sources(), ", "))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s connector: %w", source, err)
	}
	return connector, nil
}
