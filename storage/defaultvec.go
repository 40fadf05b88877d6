package storage

import "github.com/amethyst/specs/bitset"

// DefaultVec is a sparse-vec whose gaps are meaningful: GetOrDefault reads
// an absent slot as the Go zero value for T rather than a not-found
// signal, which suits common, trivially-constructible components (e.g. tags
// that carry a default weight or scale) where callers would otherwise
// immediately substitute a default on a miss. Get still reports presence
// the way Sparse.Get does.
type DefaultVec[T any] struct {
	inner *Sparse[T]
}

// NewDefaultVec returns an empty default-vec storage.
func NewDefaultVec[T any]() *DefaultVec[T] {
	return &DefaultVec[T]{inner: NewSparse[T]()}
}

func (d *DefaultVec[T]) Insert(i uint32, v T) (T, bool) { return d.inner.Insert(i, v) }
func (d *DefaultVec[T]) Remove(i uint32) (T, bool)      { return d.inner.Remove(i) }
func (d *DefaultVec[T]) Get(i uint32) (T, bool)         { return d.inner.Get(i) }
func (d *DefaultVec[T]) GetMut(i uint32) (*T, bool)     { return d.inner.GetMut(i) }
func (d *DefaultVec[T]) Mask() *bitset.BitSet           { return d.inner.Mask() }
func (d *DefaultVec[T]) Drain() []Entry[T]              { return d.inner.Drain() }
func (d *DefaultVec[T]) Len() int                       { return d.inner.Len() }

// GetOrDefault returns the stored value, or the zero value of T if i is
// unset, without reporting which case occurred.
func (d *DefaultVec[T]) GetOrDefault(i uint32) T {
	v, _ := d.inner.Get(i)
	return v
}

// Slice returns the backing slice directly, as Sparse.Slice does.
func (d *DefaultVec[T]) Slice() []T { return d.inner.Slice() }
