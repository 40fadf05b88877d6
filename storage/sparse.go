package storage

import "github.com/amethyst/specs/bitset"

// Sparse stores one value slot per entity index directly, with gaps for
// absent entries. Best for very common, small components where the
// overhead of a redirection table isn't worth it.
type Sparse[T any] struct {
	mask   *bitset.BitSet
	values []T
}

// NewSparse returns an empty sparse-vec storage.
func NewSparse[T any]() *Sparse[T] {
	return &Sparse[T]{mask: bitset.New()}
}

func (s *Sparse[T]) grow(i uint32) {
	if int(i) < len(s.values) {
		return
	}
	grown := make([]T, i+1)
	copy(grown, s.values)
	s.values = grown
}

func (s *Sparse[T]) Insert(i uint32, v T) (T, bool) {
	existed := s.mask.Contains(i)
	s.grow(i)
	prev := s.values[i]
	s.values[i] = v
	s.mask.Add(i)
	if !existed {
		var zero T
		return zero, false
	}
	return prev, true
}

func (s *Sparse[T]) Remove(i uint32) (T, bool) {
	if !s.mask.Contains(i) {
		var zero T
		return zero, false
	}
	v := s.values[i]
	var zero T
	s.values[i] = zero
	s.mask.Remove(i)
	return v, true
}

func (s *Sparse[T]) Get(i uint32) (T, bool) {
	if !s.mask.Contains(i) {
		var zero T
		return zero, false
	}
	return s.values[i], true
}

func (s *Sparse[T]) GetMut(i uint32) (*T, bool) {
	if !s.mask.Contains(i) {
		return nil, false
	}
	return &s.values[i], true
}

func (s *Sparse[T]) Mask() *bitset.BitSet { return s.mask }

func (s *Sparse[T]) Drain() []Entry[T] {
	var out []Entry[T]
	s.mask.Iter(func(i uint32) bool {
		out = append(out, Entry[T]{Index: i, Value: s.values[i]})
		return true
	})
	s.values = nil
	s.mask.Clear()
	return out
}

func (s *Sparse[T]) Len() int {
	n := 0
	s.mask.Iter(func(uint32) bool { n++; return true })
	return n
}

// Slice returns the backing slice directly, indexed by entity index.
// Entries whose bit is unset hold the zero value and must not be read as
// meaningful data; check Mask() first.
func (s *Sparse[T]) Slice() []T { return s.values }
