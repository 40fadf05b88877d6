package storage

import "github.com/amethyst/specs/bitset"

// Null is the zero-sized storage for tag/marker components: only the
// occupancy bitset matters, and Insert/Remove touch nothing but the bit.
// T should be an empty struct; if it isn't, registration should be
// rejected as storage-type misuse (see the world's RegisterWithStorage,
// which checks this when it is handed a Null storage).
type Null[T any] struct {
	mask *bitset.BitSet
}

// NewNull returns an empty null storage.
func NewNull[T any]() *Null[T] {
	return &Null[T]{mask: bitset.New()}
}

func (n *Null[T]) Insert(i uint32, v T) (T, bool) {
	existed := n.mask.Contains(i)
	n.mask.Add(i)
	var zero T
	return zero, existed
}

func (n *Null[T]) Remove(i uint32) (T, bool) {
	existed := n.mask.Contains(i)
	n.mask.Remove(i)
	var zero T
	return zero, existed
}

func (n *Null[T]) Get(i uint32) (T, bool) {
	var zero T
	return zero, n.mask.Contains(i)
}

func (n *Null[T]) GetMut(i uint32) (*T, bool) {
	if !n.mask.Contains(i) {
		return nil, false
	}
	return new(T), true
}

func (n *Null[T]) Mask() *bitset.BitSet { return n.mask }

func (n *Null[T]) Drain() []Entry[T] {
	var out []Entry[T]
	n.mask.Iter(func(i uint32) bool {
		out = append(out, Entry[T]{Index: i})
		return true
	})
	n.mask.Clear()
	return out
}

func (n *Null[T]) Len() int {
	c := 0
	n.mask.Iter(func(uint32) bool { c++; return true })
	return c
}

// IsZeroSized reports whether T has no fields that would be silently
// dropped by null storage. Used by registration to refuse null storage for
// non-zero-sized component types (the storage-type-misuse fault).
func IsZeroSized[T any]() bool {
	var zero T
	return sizeOf(zero) == 0
}
