package connector

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/config"
	"github.com/David-Botos/data-cleaner/pkg/model"
)

func seedSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.db")
	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	db.MustExec(`CREATE TABLE people (name TEXT, age INTEGER, score REAL, note BLOB)`)
	db.MustExec(`INSERT INTO people VALUES ('Ann', 41, 9.5, NULL), ('Bo', NULL, 7, '12')`)
	db.MustExec(`CREATE TABLE empty_table (id INTEGER)`)
	return path
}

func TestSQLiteConnectorLoadTable(t *testing.T) {
	ctx := context.Background()
	conn, err := NewSQLiteConnector(ctx, &config.SQLiteConfig{Path: seedSQLite(t), QueryTimeout: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Validate(ctx))

	tables, err := conn.GetTables(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"empty_table", "people"}, tables)

	s, err := conn.LoadTable(ctx, "", "people", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "score", "note"}, s.Columns)
	assert.Equal(t, []model.Row{
		{"name": "Ann", "age": 41.0, "score": 9.5, "note": nil},
		{"name": "Bo", "age": nil, "score": 7.0, "note": "12"},
	}, s.Rows)

	s, err = conn.LoadTable(ctx, "main", "people", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	s, err = conn.LoadTable(ctx, "", "empty_table", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, []string{"id"}, s.Columns)
}

func TestLoadTableRejectsInjection(t *testing.T) {
	ctx := context.Background()
	conn, err := NewSQLiteConnector(ctx, &config.SQLiteConfig{Path: seedSQLite(t)}, zap.NewNop())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.LoadTable(ctx, "", "people; DROP TABLE people", 0)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = conn.LoadTable(ctx, "main--", "people", 0)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestQualifiedName(t *testing.T) {
	name, err := QualifiedName("public", "orders")
	require.NoError(t, err)
	assert.Equal(t, "public.orders", name)

	name, err = QualifiedName("", "orders_2024")
	require.NoError(t, err)
	assert.Equal(t, "orders_2024", name)

	_, err = QualifiedName("", "1orders")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestNormalizeValue(t *testing.T) {
	assert.Nil(t, normalizeValue(nil))
	assert.Equal(t, 3.0, normalizeValue(int64(3)))
	assert.Equal(t, 12.5, normalizeValue([]byte("12.50")))
	assert.Equal(t, "abc", normalizeValue([]byte("abc")))
	assert.Equal(t, true, normalizeValue(true))
}

func TestFactory(t *testing.T) {
	ctx := context.Background()
	f := NewConnectorFactory(&config.Config{SQLite: &config.SQLiteConfig{Path: seedSQLite(t)}}, zap.NewNop())
	assert.Equal(t, []string{SourceSQLite}, f.Sources())

	conn, err := f.Create(ctx, "SQLite")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", conn.Name())
	require.NoError(t, conn.Close())

	_, err = f.Create(ctx, SourcePostgres)
	assert.ErrorContains(t, err, "not configured")

	_, err = f.Create(ctx, "oracle")
	assert.Error(t, err)
}

func TestSnowflakeDSN(t *testing.T) {
	dsn, err := snowflakeDSN(&config.SnowflakeConfig{
		User:         "analyst",
		Password:     "pw",
		Account:      "acme-xy123",
		Warehouse:    "COMPUTE_WH",
		Database:     "RAW",
		QueryTimeout: 2 * time.Minute,
	})
	require.NoError(t, err)
	assert.Contains(t, dsn, "acme-xy123")
	assert.Contains(t, dsn, "warehouse=COMPUTE_WH")
	assert.Contains(t, dsn, "STATEMENT_TIMEOUT_IN_SECONDS=120")
}
