// pkg/persist/file.go
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend keeps every blob in one JSON document on disk, keyed by name.
// Writes go through a temp file and a rename so a crash never leaves a
// truncated document behind.
type FileBackend struct {
	path string
	mu   sync.Mutex
}

// NewFileBackend creates a file-backed store at the given path
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (f *FileBackend) Load(ctx context.Context, name string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.loadLocked()
	if err != nil {
		return nil, false, err
	}
	data, ok := doc[name]
	if !ok {
		return nil, false, nil
	}
	return []byte(data), true, nil
}

func (f *FileBackend) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !json.Valid(data) {
		return fmt.Errorf("blob %q is not valid JSON", name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.loadLocked()
	if err != nil {
		return err
	}
	doc[name] = json.RawMessage(data)
	return f.saveLocked(doc)
}

func (f *FileBackend) Close() error { return nil }

func (f *FileBackend) loadLocked() (map[string]json.RawMessage, error) {
	if f.path == "" {
		return nil, errors.New("state path is required")
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]json.RawMessage), nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	if len(data) == 0 {
		return make(map[string]json.RawMessage), nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	if doc == nil {
		doc = make(map[string]json.RawMessage)
	}
	return doc, nil
}

func (f *FileBackend) saveLocked(doc map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state file: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-state-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), f.path)
}
