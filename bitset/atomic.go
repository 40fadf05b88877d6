package bitset

import (
	"math/bits"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// AtomicBitSet is a fixed-capacity, single-layer bitset whose words are set
// and cleared with atomic instructions. It backs the entity allocator's
// `raised` and `killed` tracks (see the world's entity allocator), which
// are written concurrently by many systems during one dispatch and folded
// into the allocator's main BitSet only at maintain() time.
//
// Words are grouped in cache-line-padded blocks so that two goroutines
// setting bits in adjacent words don't ping-pong the same cache line.
type AtomicBitSet struct {
	blocks []paddedWords
}

const wordsPerBlock = 8

type paddedWords struct {
	words [wordsPerBlock]uint64
	_     cpu.CacheLinePad
}

// NewAtomic returns an AtomicBitSet with room for at least capacity bits.
func NewAtomic(capacity uint32) *AtomicBitSet {
	words := (int(capacity) + wordBits - 1) / wordBits
	blocks := (words + wordsPerBlock - 1) / wordsPerBlock
	if blocks == 0 {
		blocks = 1
	}
	return &AtomicBitSet{blocks: make([]paddedWords, blocks)}
}

func (a *AtomicBitSet) wordPtr(w int) *uint64 {
	block := w / wordsPerBlock
	off := w % wordsPerBlock
	if block >= len(a.blocks) {
		return nil
	}
	return &a.blocks[block].words[off]
}

// Set atomically sets the bit at i. Reports false if i is out of the
// preallocated capacity; callers must size the set generously (entity
// allocator slot ranges are reserved up front for this reason).
func (a *AtomicBitSet) Set(i uint32) bool {
	w, bit := idx(i)
	p := a.wordPtr(w)
	if p == nil {
		return false
	}
	for {
		old := atomic.LoadUint64(p)
		n := old | (1 << bit)
		if n == old {
			return true
		}
		if atomic.CompareAndSwapUint64(p, old, n) {
			return true
		}
	}
}

// Clear atomically clears the bit at i.
func (a *AtomicBitSet) Clear(i uint32) bool {
	w, bit := idx(i)
	p := a.wordPtr(w)
	if p == nil {
		return false
	}
	for {
		old := atomic.LoadUint64(p)
		n := old &^ (1 << bit)
		if n == old {
			return true
		}
		if atomic.CompareAndSwapUint64(p, old, n) {
			return true
		}
	}
}

// Contains atomically reads the bit at i.
func (a *AtomicBitSet) Contains(i uint32) bool {
	w, bit := idx(i)
	p := a.wordPtr(w)
	if p == nil {
		return false
	}
	return atomic.LoadUint64(p)&(1<<bit) != 0
}

// Snapshot copies every currently-set bit into a freshly built BitSet
// without clearing a, for callers that need a point-in-time, iterable view
// of an otherwise write-mostly atomic set (for example, folding a "raised"
// track into a join's entities term before it is committed at maintain
// time).
func (a *AtomicBitSet) Snapshot() *BitSet {
	dst := New()
	for wi := range a.blocks {
		for off := 0; off < wordsPerBlock; off++ {
			word := atomic.LoadUint64(&a.blocks[wi].words[off])
			base := (wi*wordsPerBlock + off) * wordBits
			for word != 0 {
				bit := bits.TrailingZeros64(word)
				word &= word - 1
				dst.Add(uint32(base + bit))
			}
		}
	}
	return dst
}

// DrainInto clears every set bit in a, calling fn for each, and folds them
// into dst. This is used by maintain() to fold `raised` into `alive` and to
// collect `killed` indices; it is not safe to call concurrently with Set or
// Clear on the same AtomicBitSet, matching the single-threaded maintain
// contract in the world.
func (a *AtomicBitSet) DrainInto(dst *BitSet, fn func(i uint32)) {
	for wi := range a.blocks {
		for off := 0; off < wordsPerBlock; off++ {
			w := &a.blocks[wi].words[off]
			word := atomic.SwapUint64(w, 0)
			base := (wi*wordsPerBlock + off) * wordBits
			for word != 0 {
				bit := bits.TrailingZeros64(word)
				word &= word - 1
				i := uint32(base + bit)
				if dst != nil {
					dst.Add(i)
				}
				if fn != nil {
					fn(i)
				}
			}
		}
	}
}
