package storage

import "github.com/amethyst/specs/bitset"

// Dense stores values contiguously in insertion order alongside an
// index-redirection table, trading O(1) random removal cost (a swap-pop)
// for a packed value slice. Best for medium-frequency components with
// large values, where iterating the dense slice directly (bypassing the
// join engine) matters.
type Dense[T any] struct {
	mask   *bitset.BitSet
	values []T
	// dense[slot] is the entity index owning values[slot].
	dense []uint32
	// sparse[entityIndex] is the slot in values/dense, or -1 if absent.
	sparse []int32
}

// NewDense returns an empty dense-vec storage.
func NewDense[T any]() *Dense[T] {
	return &Dense[T]{mask: bitset.New()}
}

func (d *Dense[T]) growSparse(i uint32) {
	if int(i) < len(d.sparse) {
		return
	}
	grown := make([]int32, i+1)
	for j := range grown {
		grown[j] = -1
	}
	copy(grown, d.sparse)
	d.sparse = grown
}

func (d *Dense[T]) Insert(i uint32, v T) (T, bool) {
	d.growSparse(i)
	if slot := d.sparse[i]; slot >= 0 {
		prev := d.values[slot]
		d.values[slot] = v
		return prev, true
	}
	d.sparse[i] = int32(len(d.values))
	d.values = append(d.values, v)
	d.dense = append(d.dense, i)
	d.mask.Add(i)
	var zero T
	return zero, false
}

func (d *Dense[T]) Remove(i uint32) (T, bool) {
	if int(i) >= len(d.sparse) || d.sparse[i] < 0 {
		var zero T
		return zero, false
	}
	slot := d.sparse[i]
	v := d.values[slot]

	last := len(d.values) - 1
	lastEntity := d.dense[last]
	d.values[slot] = d.values[last]
	d.dense[slot] = lastEntity
	d.sparse[lastEntity] = slot

	d.values = d.values[:last]
	d.dense = d.dense[:last]
	d.sparse[i] = -1
	d.mask.Remove(i)
	return v, true
}

func (d *Dense[T]) Get(i uint32) (T, bool) {
	if int(i) >= len(d.sparse) || d.sparse[i] < 0 {
		var zero T
		return zero, false
	}
	return d.values[d.sparse[i]], true
}

func (d *Dense[T]) GetMut(i uint32) (*T, bool) {
	if int(i) >= len(d.sparse) || d.sparse[i] < 0 {
		return nil, false
	}
	return &d.values[d.sparse[i]], true
}

func (d *Dense[T]) Mask() *bitset.BitSet { return d.mask }

func (d *Dense[T]) Drain() []Entry[T] {
	out := make([]Entry[T], len(d.values))
	for slot, v := range d.values {
		out[slot] = Entry[T]{Index: d.dense[slot], Value: v}
	}
	d.values = nil
	d.dense = nil
	for j := range d.sparse {
		d.sparse[j] = -1
	}
	d.mask.Clear()
	return out
}

func (d *Dense[T]) Len() int { return len(d.values) }

// Values returns the packed value slice directly. Its indices are opaque
// slot numbers, not entity indices, and are not collateable with other
// storages; use Dense.EntityAt to recover the owning entity index for a
// slot.
func (d *Dense[T]) Values() []T { return d.values }

// EntityAt returns the entity index owning the value at the given dense
// slot.
func (d *Dense[T]) EntityAt(slot int) uint32 { return d.dense[slot] }
