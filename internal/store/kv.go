package store

import (
	"context"
	"sync"
)

// KV is a string-keyed slot store. Get reports ok=false for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// MemoryKV keeps slots in process memory. Each instance is isolated.
type MemoryKV struct {
	mu    sync.RWMutex
	slots map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{slots: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.slots[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = value
	return nil
}

func (m *MemoryKV) Close() error { return nil }
