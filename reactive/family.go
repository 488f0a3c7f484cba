package reactive

import (
	"runtime"
	"sync"
	"weak"
)

// Family lazily creates and memoizes one value per name. It is owned by the
// render loop and is not safe for concurrent use.
type Family[K comparable, T any] struct {
	create func(K) T
	items  map[K]T
}

// NewFamily creates family using create for missing keys.
func NewFamily[K comparable, T any](create func(K) T) *Family[K, T] {
	return &Family[K, T]{create: create, items: make(map[K]T)}
}

// Get returns value for key creating it when necessary.
func (f *Family[K, T]) Get(key K) T {
	if v, ok := f.items[key]; ok {
		return v
	}
	v := f.create(key)
	f.items[key] = v
	return v
}

// Lookup returns value for key without creating it.
func (f *Family[K, T]) Lookup(key K) (T, bool) {
	v, ok := f.items[key]
	return v, ok
}

// Each calls fn for every value in the family, order is unspecified.
func (f *Family[K, T]) Each(fn func(K, T)) {
	for k, v := range f.items {
		fn(k, v)
	}
}

// Len returns number of values.
func (f *Family[K, T]) Len() int {
	return len(f.items)
}

// Clear forgets every value.
func (f *Family[K, T]) Clear() {
	clear(f.items)
}

// WeakFamily memoizes one value per key identity without keeping keys
// alive. Once a key becomes unreachable its value is removed. Values must
// not reference their key, otherwise the key is never collected.
//
// Removal happens on a runtime cleanup goroutine, so the family is guarded
// by a mutex even though the rest of the graph is single threaded.
type WeakFamily[K any, T any] struct {
	create func(*K) T

	mu    sync.Mutex
	items map[weak.Pointer[K]]T
}

// NewWeakFamily creates family using create for missing keys.
func NewWeakFamily[K any, T any](create func(*K) T) *WeakFamily[K, T] {
	return &WeakFamily[K, T]{create: create, items: make(map[weak.Pointer[K]]T)}
}

// Get returns value for key creating it when necessary.
func (f *WeakFamily[K, T]) Get(key *K) T {
	wp := weak.Make(key)

	f.mu.Lock()
	if v, ok := f.items[wp]; ok {
		f.mu.Unlock()
		return v
	}
	f.mu.Unlock()

	v := f.create(key)

	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.items[wp]; ok {
		return existing
	}
	f.items[wp] = v
	runtime.AddCleanup(key, f.remove, wp)
	return v
}

// Lookup returns value for key without creating it.
func (f *WeakFamily[K, T]) Lookup(key *K) (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.items[weak.Make(key)]
	return v, ok
}

// Len returns number of values with live keys, or keys whose cleanup did
// not run yet.
func (f *WeakFamily[K, T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func (f *WeakFamily[K, T]) remove(wp weak.Pointer[K]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, wp)
}
