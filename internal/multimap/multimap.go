// internal/multimap/multimap.go
package multimap

import (
	"errors"
	"sync"
)

// ErrNotFound is returned when removing a key or value that is not present.
var ErrNotFound = errors.New("multimap: not found")

// BiMultiMap associates each value with at most one key, while a key may hold
// many values. Both directions are indexed so KeyFor and ValuesFor are O(1)
// and O(fan-out) respectively.
type BiMultiMap[K comparable, V comparable] struct {
	mu     sync.RWMutex
	values map[K]map[V]struct{}
	keys   map[V]K
}

// New returns an empty BiMultiMap.
func New[K comparable, V comparable]() *BiMultiMap[K, V] {
	return &BiMultiMap[K, V]{
		values: make(map[K]map[V]struct{}),
		keys:   make(map[V]K),
	}
}

// Put stores value under key. If value was held by a different key it is
// moved, so it never appears under two keys at once.
func (m *BiMultiMap[K, V]) Put(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.keys[value]; ok {
		if old == key {
			return
		}
		m.detachUnsafe(old, value)
	}
	set, ok := m.values[key]
	if !ok {
		set = make(map[V]struct{})
		m.values[key] = set
	}
	set[value] = struct{}{}
	m.keys[value] = key
}

// ValuesFor returns a copy of the values under key. Unknown keys yield an
// empty slice.
func (m *BiMultiMap[K, V]) ValuesFor(key K) []V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.values[key]
	out := make([]V, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	return out
}

// KeyFor returns the key currently holding value.
func (m *BiMultiMap[K, V]) KeyFor(value V) (K, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k, ok := m.keys[value]
	return k, ok
}

// HasKey reports whether key holds at least one value.
func (m *BiMultiMap[K, V]) HasKey(key K) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values[key]) > 0
}

// RemoveValue drops value from whichever key holds it.
func (m *BiMultiMap[K, V]) RemoveValue(value V) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, ok := m.keys[value]
	if !ok {
		return ErrNotFound
	}
	m.detachUnsafe(key, value)
	return nil
}

// RemoveAllForKey drops key and every value under it, returning the removed values.
func (m *BiMultiMap[K, V]) RemoveAllForKey(key K) ([]V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	removed := make([]V, 0, len(set))
	for v := range set {
		delete(m.keys, v)
		removed = append(removed, v)
	}
	delete(m.values, key)
	return removed, nil
}

// Len returns the number of stored values.
func (m *BiMultiMap[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys)
}

// detachUnsafe removes value from key's set and prunes empty sets. Caller holds mu.
func (m *BiMultiMap[K, V]) detachUnsafe(key K, value V) {
	delete(m.keys, value)
	if set, ok := m.values[key]; ok {
		delete(set, value)
		if len(set) == 0 {
			delete(m.values, key)
		}
	}
}
