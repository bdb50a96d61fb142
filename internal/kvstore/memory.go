package kvstore

import (
	"context"
	"sync"
)

// MemoryBackend keeps values in a map. Used by tests and dry runs.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailPuts makes every Put return this error when set.
	FailPuts error
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryBackend) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPuts != nil {
		return m.FailPuts
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryBackend) Update(_ context.Context, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var old []byte
	if v, ok := m.data[key]; ok {
		old = append([]byte(nil), v...)
	}
	next, err := fn(old)
	if err != nil || next == nil {
		return err
	}
	if m.FailPuts != nil {
		return m.FailPuts
	}
	m.data[key] = append([]byte(nil), next...)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryBackend) Close() error { return nil }

// Raw sets a stored value directly, bypassing encoding.
func (m *MemoryBackend) Raw(key string, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = []byte(value)
}

// Len returns the number of stored keys.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
