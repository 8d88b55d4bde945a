package store

import (
	"context"
	"sync"
)

// Memory is an in-memory Store. It is safe for concurrent use.
type Memory struct {
	mu          sync.RWMutex
	enabled     bool
	initialized bool
	data        map[string][]byte
}

// NewMemory creates an enabled in-memory store. It still has to be opened.
func NewMemory() *Memory {
	return &Memory{enabled: true, data: make(map[string][]byte)}
}

// NewDisabled creates a store that reports itself disabled.
func NewDisabled() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Enabled reports whether the store is enabled.
func (m *Memory) Enabled() bool { return m.enabled }

// Initialized reports whether Open was called.
func (m *Memory) Initialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// Open marks the store as ready.
func (m *Memory) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = true
	return nil
}

// IsEmpty reports whether no key is stored.
func (m *Memory) IsEmpty(ctx context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data) == 0, nil
}

// Get returns a copy of the value stored under key.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value under key.
func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return ErrNotInitialized
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// Ensure Memory implements Store.
var _ Store = (*Memory)(nil)
