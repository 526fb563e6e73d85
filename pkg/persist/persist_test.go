package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/config"
)

// exerciseBackend runs the contract every backend must satisfy
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, found, err := b.Load(ctx, "data-cleaning-storage")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, b.Save(ctx, "data-cleaning-storage", []byte(`{"isDarkMode":true}`)))
	data, found, err := b.Load(ctx, "data-cleaning-storage")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"isDarkMode":true}`, string(data))

	require.NoError(t, b.Save(ctx, "data-cleaning-storage", []byte(`{"isDarkMode":false}`)))
	data, _, err = b.Load(ctx, "data-cleaning-storage")
	require.NoError(t, err)
	assert.JSONEq(t, `{"isDarkMode":false}`, string(data))

	require.NoError(t, b.Save(ctx, "other", []byte(`[]`)))
	data, _, err = b.Load(ctx, "data-cleaning-storage")
	require.NoError(t, err)
	assert.JSONEq(t, `{"isDarkMode":false}`, string(data))
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend())
}

func TestFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	b := NewFileBackend(path)
	exerciseBackend(t, b)

	// A fresh instance reads what the first one wrote
	data, found, err := NewFileBackend(path).Load(context.Background(), "other")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[]`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestFileBackendRejectsInvalidJSON(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "state.json"))
	assert.Error(t, b.Save(context.Background(), "x", []byte("{not json")))
}

func TestFileBackendCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	_, _, err := NewFileBackend(path).Load(context.Background(), "x")
	assert.Error(t, err)
}

func TestBadgerBackendInMemory(t *testing.T) {
	b, err := OpenBadgerBackend(BadgerConfig{InMemory: true}, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()

	exerciseBackend(t, b)
}

func TestBadgerBackendRequiresPath(t *testing.T) {
	_, err := OpenBadgerBackend(BadgerConfig{}, nil)
	assert.Error(t, err)
}

func TestSQLBackendSQLite(t *testing.T) {
	db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)

	b, err := NewSQLBackend(context.Background(), db, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()

	exerciseBackend(t, b)
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		backend string
		path    string
		want    interface{}
	}{
		{config.BackendMemory, "", &MemoryBackend{}},
		{config.BackendFile, filepath.Join(dir, "state.json"), &FileBackend{}},
		{config.BackendBadger, filepath.Join(dir, "badger"), &BadgerBackend{}},
		{config.BackendSQLite, filepath.Join(dir, "sqlite", "state.db"), &SQLBackend{}},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			b, err := Open(&config.Config{StateBackend: tt.backend, StatePath: tt.path}, zap.NewNop())
			require.NoError(t, err)
			defer b.Close()
			assert.IsType(t, tt.want, b)
		})
	}

	_, err := Open(&config.Config{StateBackend: "redis"}, nil)
	assert.Error(t, err)

	_, err = Open(&config.Config{StateBackend: config.BackendPostgres}, nil)
	assert.Error(t, err)
}
