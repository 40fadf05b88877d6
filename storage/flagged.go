package storage

import "github.com/amethyst/specs/bitset"

// Flagged wraps a Storage[T] and emits ComponentEvents on its Channel:
// every Insert emits Inserted, every successful GetMut emits Modified
// (even if the caller never actually changes the value through the
// returned pointer — dirty tracking fires on mutable access, not on an
// observed change), and every successful Remove emits Removed.
type Flagged[T any] struct {
	inner   Storage[T]
	channel *Channel
}

// NewFlagged wraps an existing storage with event tracking.
func NewFlagged[T any](inner Storage[T]) *Flagged[T] {
	return &Flagged[T]{inner: inner, channel: NewChannel()}
}

// Channel exposes the event log for RegisterReader/Read.
func (f *Flagged[T]) Channel() *Channel { return f.channel }

func (f *Flagged[T]) Insert(i uint32, v T) (T, bool) {
	prev, existed := f.inner.Insert(i, v)
	f.channel.emit(Inserted, i)
	return prev, existed
}

func (f *Flagged[T]) Remove(i uint32) (T, bool) {
	v, ok := f.inner.Remove(i)
	if ok {
		f.channel.emit(Removed, i)
	}
	return v, ok
}

func (f *Flagged[T]) Get(i uint32) (T, bool) {
	return f.inner.Get(i)
}

func (f *Flagged[T]) GetMut(i uint32) (*T, bool) {
	p, ok := f.inner.GetMut(i)
	if ok {
		f.channel.emit(Modified, i)
	}
	return p, ok
}

func (f *Flagged[T]) Mask() *bitset.BitSet { return f.inner.Mask() }

func (f *Flagged[T]) Drain() []Entry[T] {
	entries := f.inner.Drain()
	for _, e := range entries {
		f.channel.emit(Removed, e.Index)
	}
	return entries
}

func (f *Flagged[T]) Len() int { return f.inner.Len() }
