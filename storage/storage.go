// Package storage implements the per-component-type tables that back a
// world: a value backing (dense vec, sparse vec, default vec, hashmap,
// null, or btree) paired with an occupancy bitset, plus the flagged-storage
// adapter that layers insertion/modification/removal events on top.
package storage

import "github.com/amethyst/specs/bitset"

// Storage is the contract every backing variant satisfies. T is the
// component's Go type. Implementations share identical behavior; only the
// memory layout and iteration characteristics differ (see the variant
// files in this package).
type Storage[T any] interface {
	// Insert stores v at i, returning the previous value and whether one
	// existed.
	Insert(i uint32, v T) (prev T, existed bool)
	// Remove deletes the value at i, returning it and whether one existed.
	Remove(i uint32) (T, bool)
	// Get returns a copy of the value at i.
	Get(i uint32) (T, bool)
	// GetMut returns a pointer to the value at i for in-place mutation.
	GetMut(i uint32) (*T, bool)
	// Mask returns the storage's occupancy bitset. Callers must not mutate
	// it directly; the storage methods are the only legal writers.
	Mask() *bitset.BitSet
	// Drain removes and returns every stored value, emptying the storage.
	Drain() []Entry[T]
	// Len reports how many entries are currently stored.
	Len() int
}

// Entry pairs a slot index with its component value, as produced by Drain.
type Entry[T any] struct {
	Index uint32
	Value T
}
