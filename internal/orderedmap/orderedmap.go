package orderedmap

import (
	"errors"
	"iter"
)

var ErrDuplicateEntry = errors.New("duplicate entry")

// Map is a map that remembers the order in which keys were first set.
// Set never overwrites an existing key, which gives callers first-wins
// semantics for free.
type Map[K comparable, V any] struct {
	entries []K
	keys    map[K]V
}

func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		entries: make([]K, 0),
		keys:    make(map[K]V),
	}
}

func (m *Map[K, V]) Set(key K, value V) error {
	_, exists := m.keys[key]
	if exists {
		return ErrDuplicateEntry
	}
	m.entries = append(m.entries, key)
	m.keys[key] = value
	return nil
}

func (m *Map[K, V]) Get(key K) (V, bool) {
	if m == nil {
		var zero V
		return zero, false
	}
	v, ok := m.keys[key]
	return v, ok
}

func (m *Map[K, V]) Has(key K) bool {
	if m == nil {
		return false
	}
	_, ok := m.keys[key]
	return ok
}

func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Keys returns the keys in insertion order
func (m *Map[K, V]) Keys() []K {
	if m == nil {
		return nil
	}
	return append([]K(nil), m.entries...)
}

// Values returns the values in key insertion order
func (m *Map[K, V]) Values() []V {
	if m == nil {
		return nil
	}
	ret := make([]V, 0, len(m.entries))
	for _, k := range m.entries {
		ret = append(ret, m.keys[k])
	}
	return ret
}

// Clone returns a shallow copy of the map
func (m *Map[K, V]) Clone() *Map[K, V] {
	ret := &Map[K, V]{
		entries: make([]K, 0, m.Len()),
		keys:    make(map[K]V, m.Len()),
	}
	if m == nil {
		return ret
	}
	ret.entries = append(ret.entries, m.entries...)
	for k, v := range m.keys {
		ret.keys[k] = v
	}
	return ret
}

func (m *Map[K, V]) Range() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if m == nil {
			return
		}
		for _, k := range m.entries {
			v := m.keys[k]
			if !yield(k, v) {
				break
			}
		}
	}
}
