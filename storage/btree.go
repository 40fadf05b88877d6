package storage

import (
	"sort"

	"github.com/amethyst/specs/bitset"
)

// BTree stores values in a Go map keyed by entity index but maintains a
// sorted key cache so Drain and ordered traversal see entities in
// ascending index order, the way an ordered map would. Best for rare
// components where callers care about deterministic ordered iteration,
// e.g. save/diff tooling built on top of the core.
type BTree[T any] struct {
	mask      *bitset.BitSet
	values    map[uint32]*T
	keysDirty bool
	keys      []uint32
}

// NewBTree returns an empty btree storage.
func NewBTree[T any]() *BTree[T] {
	return &BTree[T]{mask: bitset.New(), values: make(map[uint32]*T)}
}

func (b *BTree[T]) Insert(i uint32, v T) (T, bool) {
	if p, ok := b.values[i]; ok {
		prev := *p
		*p = v
		return prev, true
	}
	p := new(T)
	*p = v
	b.values[i] = p
	b.mask.Add(i)
	b.keysDirty = true
	var zero T
	return zero, false
}

func (b *BTree[T]) Remove(i uint32) (T, bool) {
	p, ok := b.values[i]
	if !ok {
		var zero T
		return zero, false
	}
	delete(b.values, i)
	b.mask.Remove(i)
	b.keysDirty = true
	return *p, true
}

func (b *BTree[T]) Get(i uint32) (T, bool) {
	p, ok := b.values[i]
	if !ok {
		var zero T
		return zero, false
	}
	return *p, true
}

func (b *BTree[T]) GetMut(i uint32) (*T, bool) {
	p, ok := b.values[i]
	return p, ok
}

func (b *BTree[T]) Mask() *bitset.BitSet { return b.mask }

func (b *BTree[T]) Len() int { return len(b.values) }

// sortedKeys returns entity indices in ascending order, rebuilding the
// cache only when the key set has changed since the last call.
func (b *BTree[T]) sortedKeys() []uint32 {
	if !b.keysDirty && len(b.keys) == len(b.values) {
		return b.keys
	}
	keys := make([]uint32, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	b.keys = keys
	b.keysDirty = false
	return keys
}

func (b *BTree[T]) Drain() []Entry[T] {
	keys := b.sortedKeys()
	out := make([]Entry[T], len(keys))
	for idx, k := range keys {
		out[idx] = Entry[T]{Index: k, Value: *b.values[k]}
	}
	b.values = make(map[uint32]*T)
	b.mask.Clear()
	b.keys = nil
	b.keysDirty = false
	return out
}

// Ordered calls fn for every stored entry in ascending entity-index order.
func (b *BTree[T]) Ordered(fn func(i uint32, v *T) bool) {
	for _, k := range b.sortedKeys() {
		if !fn(k, b.values[k]) {
			return
		}
	}
}
