package sync

import "sync"

// TypedSyncMap is a thin generic wrapper around sync.Map. It is suited to
// caches written once per key and read many times from multiple goroutines.
type TypedSyncMap[K comparable, V any] struct {
	m sync.Map
}

func (m *TypedSyncMap[K, V]) Delete(key K) { m.m.Delete(key) }

func (m *TypedSyncMap[K, V]) Load(key K) (V, bool) {
	v, ok := m.m.Load(key)
	if !ok {
		return *new(V), ok
	}

	if vv, ok := v.(V); ok {
		return vv, true
	}
	return *new(V), false
}

// LoadOrStore returns the existing value for the key if present. Otherwise
// it stores and returns the given value. The loaded result is true if the
// value was loaded, false if stored.
func (m *TypedSyncMap[K, V]) LoadOrStore(key K, value V) (V, bool) {
	a, loaded := m.m.LoadOrStore(key, value)
	if av, ok := a.(V); ok {
		return av, loaded
	}

	return *new(V), loaded
}

func (m *TypedSyncMap[K, V]) Store(key K, value V) { m.m.Store(key, value) }

// Range calls fn for each key and value in the map, stopping early if
// fn returns false.
func (m *TypedSyncMap[K, V]) Range(fn func(K, V) bool) {
	m.m.Range(func(k, v any) bool {
		kk, okK := k.(K)
		vv, okV := v.(V)
		if !okK || !okV {
			return true
		}
		return fn(kk, vv)
	})
}

// Len counts the entries currently in the map. It walks the whole map and
// so should not be used on hot paths.
func (m *TypedSyncMap[K, V]) Len() int {
	n := 0
	m.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
