package cache

import (
	"context"
	"sync"
)

// Store is the persistence boundary for scan results. The pipeline takes
// one GetMany snapshot at the start of a run and writes fresh entries
// back with SetMany after fetches settle. Implementations must tolerate
// concurrent use; last-writer-wins on a single key is acceptable.
type Store interface {
	// GetMany returns the entries present for the given channel IDs.
	// Missing IDs are simply absent from the map.
	GetMany(ctx context.Context, channelIDs []string) (map[string]Entry, error)

	// SetMany overwrites entries for the given channel IDs.
	SetMany(ctx context.Context, entries map[string]Entry) error
}

// Memory is an in-process Store. It backs tests and CLI runs that have
// no Redis configured.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

// GetMany implements Store.
func (m *Memory) GetMany(_ context.Context, channelIDs []string) (map[string]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	found := make(map[string]Entry)
	for _, id := range channelIDs {
		if entry, ok := m.entries[id]; ok {
			found[id] = entry
		}
	}
	return found, nil
}

// SetMany implements Store.
func (m *Memory) SetMany(_ context.Context, entries map[string]Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, entry := range entries {
		m.entries[id] = entry
	}
	return nil
}

// Clear drops every entry.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]Entry)
}
