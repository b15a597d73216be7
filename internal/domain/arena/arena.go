// Package arena stores domain values in insertion order under strongly typed ids.
package arena

import "fmt"

// Arena maps ids of type K to values of type V. The zero value is ready to use.
// An Arena is not safe for concurrent mutation.
type Arena[K ~int, V any] struct {
	ids   []K
	items map[K]V
}

// New returns an empty Arena.
func New[K ~int, V any]() *Arena[K, V] {
	return &Arena[K, V]{items: make(map[K]V)}
}

// Put inserts or replaces the value for id. Replacing keeps the original position.
func (a *Arena[K, V]) Put(id K, v V) {
	if a.items == nil {
		a.items = make(map[K]V)
	}
	if _, ok := a.items[id]; !ok {
		a.ids = append(a.ids, id)
	}
	a.items[id] = v
}

// Get returns the value for id or an error wrapping ErrNotFound.
// A nil Arena has no entries.
func (a *Arena[K, V]) Get(id K) (V, error) {
	var zero V
	if a == nil {
		return zero, fmt.Errorf("id %d: %w", int(id), ErrNotFound)
	}
	v, ok := a.items[id]
	if !ok {
		return zero, fmt.Errorf("id %d: %w", int(id), ErrNotFound)
	}
	return v, nil
}

// Has reports whether id has an entry.
func (a *Arena[K, V]) Has(id K) bool {
	if a == nil {
		return false
	}
	_, ok := a.items[id]
	return ok
}

// Len returns the number of entries.
func (a *Arena[K, V]) Len() int {
	if a == nil {
		return 0
	}
	return len(a.ids)
}

// IDs returns a copy of the ids in insertion order.
func (a *Arena[K, V]) IDs() []K {
	if a == nil {
		return nil
	}
	out := make([]K, len(a.ids))
	copy(out, a.ids)
	return out
}

// Each calls fn for every entry in insertion order.
func (a *Arena[K, V]) Each(fn func(id K, v V)) {
	if a == nil {
		return
	}
	for _, id := range a.ids {
		fn(id, a.items[id])
	}
}
