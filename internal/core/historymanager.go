package core

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryHistory is an in-process History. It keeps at most limit snapshots
// per key, dropping the oldest; a limit of 0 keeps everything.
// Thread-safe for concurrent access.
type MemoryHistory struct {
	mu      sync.RWMutex
	limit   int
	entries map[string][]StateSnapshot // key -> snapshots, oldest first
}

// NewMemoryHistory creates an empty MemoryHistory.
func NewMemoryHistory(limit int) *MemoryHistory {
	return &MemoryHistory{
		limit:   limit,
		entries: make(map[string][]StateSnapshot),
	}
}

func (h *MemoryHistory) Append(_ context.Context, snapshot StateSnapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := snapshot.Key()
	list := append(h.entries[key], snapshot)
	if h.limit > 0 && len(list) > h.limit {
		list = slices.Clone(list[len(list)-h.limit:])
	}
	h.entries[key] = list
	return nil
}

func (h *MemoryHistory) Latest(_ context.Context, key string) (StateSnapshot, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	list := h.entries[key]
	if len(list) == 0 {
		return StateSnapshot{}, fmt.Errorf("key %q: %w", key, ErrNotFound)
	}
	return list[len(list)-1], nil
}

func (h *MemoryHistory) Version(_ context.Context, key, version string) (StateSnapshot, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	list := h.entries[key]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Version == version {
			return list[i], nil
		}
	}
	return StateSnapshot{}, fmt.Errorf("key %q version %q: %w", key, version, ErrNotFound)
}

func (h *MemoryHistory) ListVersions(_ context.Context, key string) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	list := h.entries[key]
	if len(list) == 0 {
		return nil, fmt.Errorf("key %q: %w", key, ErrNotFound)
	}
	versions := make([]string, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		versions = append(versions, list[i].Version)
	}
	return versions, nil
}

func (h *MemoryHistory) ListKeys(_ context.Context) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	keys := make([]string, 0, len(h.entries))
	for k := range h.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}
