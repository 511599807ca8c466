package store

import (
	"context"
	"slices"
	"sync"
)

// MemoryBlobs keeps blobs in a map. Failures can be injected with FailPuts.
type MemoryBlobs struct {
	mu       sync.RWMutex
	blobs    map[string][]byte
	failPuts int
	err      error
}

func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{blobs: map[string][]byte{}}
}

func (m *MemoryBlobs) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[key]
	return slices.Clone(b), ok, nil
}

func (m *MemoryBlobs) Put(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPuts > 0 {
		m.failPuts--
		return m.err
	}
	m.blobs[key] = slices.Clone(blob)
	return nil
}

// FailPuts makes the next n Put calls fail with err.
func (m *MemoryBlobs) FailPuts(n int, err error) {
	m.mu.Lock()
	m.failPuts = n
	m.err = err
	m.mu.Unlock()
}

// Keys lists stored keys in sorted order.
func (m *MemoryBlobs) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (m *MemoryBlobs) Close() error { return nil }
