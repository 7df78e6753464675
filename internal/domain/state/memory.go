package state

import (
	"context"
	"slices"
	"sync"

	"github.com/GriffinCanCode/localbrowser/internal/shared/types"
)

// MemoryBackend keeps entries in process memory
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]types.StateEntry
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]types.StateEntry)}
}

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Put(_ context.Context, id string, entry types.StateEntry) error {
	b.mu.Lock()
	b.entries[id] = entry
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Get(_ context.Context, id string) (types.StateEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entry, ok := b.entries[id]
	if !ok {
		return types.StateEntry{}, ErrNotFound
	}
	return entry, nil
}

func (b *MemoryBackend) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	delete(b.entries, id)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) List(_ context.Context) ([]string, error) {
	b.mu.RLock()
	ids := make([]string, 0, len(b.entries))
	for id := range b.entries {
		ids = append(ids, id)
	}
	b.mu.RUnlock()
	slices.Sort(ids)
	return ids, nil
}

func (b *MemoryBackend) Close() error { return nil }
