// pkg/persist/memory.go
package persist

import (
	"context"
	"sync"
)

// MemoryBackend keeps blobs in process memory
type MemoryBackend struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{blobs: make(map[string][]byte)}
}

func (m *MemoryBackend) Load(ctx context.Context, name string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (m *MemoryBackend) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[name] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
