package ecsx

import (
	"maps"
	"sync"
)

// Blackboard holds loosely-typed facts (scores, flags, timers) that systems
// publish and expression run criteria read. Keep it in the World as a
// *Blackboard resource.
//
// Every mutation bumps a revision. Readers that derive something from the
// whole board, such as a compiled expression environment, compare revisions
// instead of copying the board on every pass.
type Blackboard struct {
	mu      sync.RWMutex
	entries map[string]any
	rev     uint64

	// view is a frozen copy of entries at viewRev, shared by View callers.
	view    map[string]any
	viewRev uint64
}

// NewBlackboard returns an empty blackboard at revision 0.
func NewBlackboard() *Blackboard {
	return &Blackboard{}
}

// Get returns the value stored under key, or nil.
func (b *Blackboard) Get(key string) any {
	v, _ := b.Lookup(key)
	return v
}

// Lookup returns the value stored under key and whether it is present.
func (b *Blackboard) Lookup(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.entries[key]
	return v, ok
}

// BlackboardValue returns the value under key as a T. It reports false when
// the key is missing or holds another type.
func BlackboardValue[T any](b *Blackboard, key string) (T, bool) {
	v, ok := b.Lookup(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func (b *Blackboard) mutate(fn func(entries map[string]any) bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.entries == nil {
		b.entries = make(map[string]any)
	}
	if fn(b.entries) {
		b.rev++
	}
}

// Set stores value under key.
func (b *Blackboard) Set(key string, value any) {
	b.mutate(func(entries map[string]any) bool {
		entries[key] = value
		return true
	})
}

// Modify replaces the value under key with fn(old, present) in one critical
// section, so concurrent counters do not lose increments.
func (b *Blackboard) Modify(key string, fn func(old any, present bool) any) {
	b.mutate(func(entries map[string]any) bool {
		old, ok := entries[key]
		entries[key] = fn(old, ok)
		return true
	})
}

// Delete removes key. Deleting a missing key leaves the revision alone.
func (b *Blackboard) Delete(key string) {
	b.mutate(func(entries map[string]any) bool {
		if _, ok := entries[key]; !ok {
			return false
		}
		delete(entries, key)
		return true
	})
}

// Load replaces every entry with a copy of data.
func (b *Blackboard) Load(data map[string]any) {
	b.mutate(func(entries map[string]any) bool {
		clear(entries)
		maps.Copy(entries, data)
		return true
	})
}

// Revision counts mutations since creation.
func (b *Blackboard) Revision() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rev
}

// Snapshot returns a private copy of all entries.
func (b *Blackboard) Snapshot() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]any, len(b.entries))
	maps.Copy(out, b.entries)
	return out
}

// View returns a frozen copy of the entries together with its revision. The
// copy is rebuilt only after a mutation and is shared between callers, so it
// must be treated as read-only.
func (b *Blackboard) View() (map[string]any, uint64) {
	b.mu.RLock()
	if b.view != nil && b.viewRev == b.rev {
		view, rev := b.view, b.viewRev
		b.mu.RUnlock()
		return view, rev
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.view == nil || b.viewRev != b.rev {
		b.view = maps.Clone(b.entries)
		if b.view == nil {
			b.view = map[string]any{}
		}
		b.viewRev = b.rev
	}
	return b.view, b.viewRev
}
