// Package multimap provides the map-of-collections registries used by the
// store and the validation scheduler.
package multimap

// SetMap maps keys to insertion-ordered sets of values.
type SetMap[K comparable, V comparable] struct {
	sets map[K]*orderedSet[V]
	keys []K
}

type orderedSet[V comparable] struct {
	items []V
	index map[V]struct{}
}

// NewSetMap constructs an empty SetMap.
func NewSetMap[K comparable, V comparable]() *SetMap[K, V] {
	return &SetMap[K, V]{sets: map[K]*orderedSet[V]{}}
}

// Upsert adds values to the set stored under key, creating it when missing.
// Values already present keep their original position.
func (m *SetMap[K, V]) Upsert(key K, values ...V) {
	set, ok := m.sets[key]
	if !ok {
		set = &orderedSet[V]{index: map[V]struct{}{}}
		m.sets[key] = set
		m.keys = append(m.keys, key)
	}
	for _, value := range values {
		if _, exists := set.index[value]; exists {
			continue
		}
		set.index[value] = struct{}{}
		set.items = append(set.items, value)
	}
}

// Delete removes value from the set stored under key. Empty sets are kept so
// key order stays stable across subscribe/unsubscribe cycles.
func (m *SetMap[K, V]) Delete(key K, value V) bool {
	set, ok := m.sets[key]
	if !ok {
		return false
	}
	if _, exists := set.index[value]; !exists {
		return false
	}
	delete(set.index, value)
	for i, item := range set.items {
		if item == value {
			set.items = append(set.items[:i:i], set.items[i+1:]...)
			break
		}
	}
	return true
}

// Has reports whether value is stored under key.
func (m *SetMap[K, V]) Has(key K, value V) bool {
	set, ok := m.sets[key]
	if !ok {
		return false
	}
	_, exists := set.index[value]
	return exists
}

// Values returns a copy of the set stored under key in insertion order. The
// copy can be iterated while the map is being modified.
func (m *SetMap[K, V]) Values(key K) []V {
	set, ok := m.sets[key]
	if !ok || len(set.items) == 0 {
		return nil
	}
	return append([]V(nil), set.items...)
}

// Len returns the number of values stored under key.
func (m *SetMap[K, V]) Len(key K) int {
	set, ok := m.sets[key]
	if !ok {
		return 0
	}
	return len(set.items)
}

// Keys returns every key ever upserted, in first-insertion order.
func (m *SetMap[K, V]) Keys() []K {
	return append([]K(nil), m.keys...)
}

// SliceMap maps keys to append-only lists that support predicate removal.
type SliceMap[K comparable, V any] struct {
	lists map[K][]V
	keys  []K
}

// NewSliceMap constructs an empty SliceMap.
func NewSliceMap[K comparable, V any]() *SliceMap[K, V] {
	return &SliceMap[K, V]{lists: map[K][]V{}}
}

// Upsert appends values to the list stored under key.
func (m *SliceMap[K, V]) Upsert(key K, values ...V) {
	list, ok := m.lists[key]
	if !ok {
		m.keys = append(m.keys, key)
	}
	m.lists[key] = append(list, values...)
}

// DeleteFunc removes every value under key for which match returns true and
// reports how many were removed. Keys left empty are dropped.
func (m *SliceMap[K, V]) DeleteFunc(key K, match func(V) bool) int {
	list, ok := m.lists[key]
	if !ok {
		return 0
	}
	kept := list[:0:0]
	for _, value := range list {
		if !match(value) {
			kept = append(kept, value)
		}
	}
	removed := len(list) - len(kept)
	if len(kept) == 0 {
		m.drop(key)
		return removed
	}
	m.lists[key] = kept
	return removed
}

// Get returns a copy of the list stored under key.
func (m *SliceMap[K, V]) Get(key K) []V {
	list, ok := m.lists[key]
	if !ok {
		return nil
	}
	return append([]V(nil), list...)
}

// Keys returns the keys that currently hold values, in first-insertion order.
func (m *SliceMap[K, V]) Keys() []K {
	return append([]K(nil), m.keys...)
}

// Len returns the number of keys holding values.
func (m *SliceMap[K, V]) Len() int {
	return len(m.lists)
}

func (m *SliceMap[K, V]) drop(key K) {
	delete(m.lists, key)
	for i, existing := range m.keys {
		if existing == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			return
		}
	}
}
