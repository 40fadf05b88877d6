package storage

import "github.com/amethyst/specs/bitset"

// HashMap stores values in a Go map keyed by entity index, boxed so that
// GetMut can hand out a stable pointer (a map's own elements are not
// addressable in Go). Best for rare components where the per-entry
// overhead of a dense or sparse slice isn't justified by the occupancy
// ratio.
type HashMap[T any] struct {
	mask   *bitset.BitSet
	values map[uint32]*T
}

// NewHashMap returns an empty hashmap storage.
func NewHashMap[T any]() *HashMap[T] {
	return &HashMap[T]{mask: bitset.New(), values: make(map[uint32]*T)}
}

func (h *HashMap[T]) Insert(i uint32, v T) (T, bool) {
	if p, ok := h.values[i]; ok {
		prev := *p
		*p = v
		return prev, true
	}
	p := new(T)
	*p = v
	h.values[i] = p
	h.mask.Add(i)
	var zero T
	return zero, false
}

func (h *HashMap[T]) Remove(i uint32) (T, bool) {
	p, ok := h.values[i]
	if !ok {
		var zero T
		return zero, false
	}
	delete(h.values, i)
	h.mask.Remove(i)
	return *p, true
}

func (h *HashMap[T]) Get(i uint32) (T, bool) {
	p, ok := h.values[i]
	if !ok {
		var zero T
		return zero, false
	}
	return *p, true
}

func (h *HashMap[T]) GetMut(i uint32) (*T, bool) {
	p, ok := h.values[i]
	return p, ok
}

func (h *HashMap[T]) Mask() *bitset.BitSet { return h.mask }

func (h *HashMap[T]) Drain() []Entry[T] {
	out := make([]Entry[T], 0, len(h.values))
	for i, p := range h.values {
		out = append(out, Entry[T]{Index: i, Value: *p})
	}
	h.values = make(map[uint32]*T)
	h.mask.Clear()
	return out
}

func (h *HashMap[T]) Len() int { return len(h.values) }
