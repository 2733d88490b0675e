package archive

import (
	"context"
	"sync"
)

// MemoryRecorder keeps archive entries in memory. Used for tests and for
// deployments that opt out of redis.
type MemoryRecorder struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{entries: make(map[string][]Entry)}
}

// Record appends an entry.
func (m *MemoryRecorder) Record(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := entryKey(entry.Scope, entry.Identifier)
	m.entries[key] = append(m.entries[key], entry)
	return nil
}

// List returns entries for a scope/identifier pair, oldest first.
func (m *MemoryRecorder) List(_ context.Context, scope, identifier string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored := m.entries[entryKey(scope, identifier)]
	out := make([]Entry, len(stored))
	copy(out, stored)
	return out, nil
}

// Close is a no-op for the in-memory recorder.
func (m *MemoryRecorder) Close() error { return nil }

func entryKey(scope, identifier string) string {
	return scope + ":" + identifier
}
