package bitset

import "math/bits"

// lowSpan, midSpan, and topSpan are the index counts one bit at each
// layer summarizes: a layer0 word bit is one index, a layer1 word bit is
// one layer0 word (lowSpan indices), a layer2 word bit is one layer1
// word (midSpan indices), and a layer3 bit is one layer2 word (topSpan
// indices, matching TopWords' unit).
const (
	lowSpan = wordBits
	midSpan = wordBits * wordBits
	topSpan = wordBits * wordBits * wordBits
)

// hierarchy is satisfied by a Reader that exposes its own four-layer
// summary words. notView's complement walks this the same top-down way
// BitSet.Iter walks a BitSet, so it can skip an entire summarized block
// with one word test instead of calling Contains once per index in it.
type hierarchy interface {
	layer3Word() uint64
	layer2Word(i int) uint64
	layer1Word(i int) uint64
	layer0Word(i int) uint64
}

// Reader is satisfied by BitSet and by every combinator view returned from
// this file, so conjunctions can be built from either a concrete BitSet or
// from other combinators without copying.
type Reader interface {
	Contains(i uint32) bool
	Iter(yield func(uint32) bool)
	TopWords() int
	IterRange(from, to int, yield func(uint32) bool)
}

// And returns a lazy view over the intersection of a and b. Contains is the
// logical AND; Iter walks a's set bits and tests membership in b, which
// keeps the skip-ahead behavior of whichever input is sparser on the outer
// loop unnecessary to special-case since both still skip empty ranges.
func And(a, b Reader) Reader {
	return andView{a, b}
}

type andView struct{ a, b Reader }

func (v andView) Contains(i uint32) bool { return v.a.Contains(i) && v.b.Contains(i) }

func (v andView) Iter(yield func(uint32) bool) {
	v.a.Iter(func(i uint32) bool {
		if v.b.Contains(i) {
			return yield(i)
		}
		return true
	})
}

func (v andView) TopWords() int {
	if n := v.a.TopWords(); n < v.b.TopWords() {
		return n
	}
	return v.b.TopWords()
}

func (v andView) IterRange(from, to int, yield func(uint32) bool) {
	v.a.IterRange(from, to, func(i uint32) bool {
		if v.b.Contains(i) {
			return yield(i)
		}
		return true
	})
}

// Or returns a view over the union of a and b. Contains is evaluated
// lazily; Iter and IterRange first collect both inputs' indices into a
// temporary BitSet so the union is yielded once each, in ascending order.
func Or(a, b Reader) Reader {
	return orView{a, b}
}

type orView struct{ a, b Reader }

func (v orView) Contains(i uint32) bool { return v.a.Contains(i) || v.b.Contains(i) }

func (v orView) Iter(yield func(uint32) bool) {
	v.IterRange(0, v.TopWords(), yield)
}

func (v orView) TopWords() int {
	if n := v.a.TopWords(); n > v.b.TopWords() {
		return n
	}
	return v.b.TopWords()
}

func (v orView) IterRange(from, to int, yield func(uint32) bool) {
	union := New()
	add := func(i uint32) bool {
		union.Add(i)
		return true
	}
	v.a.IterRange(from, to, add)
	v.b.IterRange(from, to, add)
	union.IterRange(from, to, yield)
}

// Xor returns a lazy view over the symmetric difference of a and b.
func Xor(a, b Reader) Reader {
	return xorView{a, b}
}

type xorView struct{ a, b Reader }

func (v xorView) Contains(i uint32) bool { return v.a.Contains(i) != v.b.Contains(i) }

func (v xorView) Iter(yield func(uint32) bool) {
	v.IterRange(0, max(v.a.TopWords(), v.b.TopWords()), yield)
}

func (v xorView) TopWords() int {
	if n := v.a.TopWords(); n > v.b.TopWords() {
		return n
	}
	return v.b.TopWords()
}

func (v xorView) IterRange(from, to int, yield func(uint32) bool) {
	ok := true
	v.a.IterRange(from, to, func(i uint32) bool {
		if !v.b.Contains(i) {
			ok = yield(i)
		}
		return ok
	})
	if !ok {
		return
	}
	v.b.IterRange(from, to, func(i uint32) bool {
		if !v.a.Contains(i) {
			return yield(i)
		}
		return true
	})
}

// Not returns the complement of a over [0, bound). Iterating a complement
// requires a bound because the universe of indices is otherwise unknown;
// join construction supplies a bound covering the masks of all of its
// bounded terms.
func Not(a Reader, bound uint32) Reader {
	return notView{a: a, bound: bound}
}

type notView struct {
	a     Reader
	bound uint32
}

func (v notView) Contains(i uint32) bool {
	return i < v.bound && !v.a.Contains(i)
}

func (v notView) TopWords() int {
	return int((v.bound + topSpan - 1) / topSpan)
}

func (v notView) Iter(yield func(uint32) bool) {
	v.IterRange(0, v.TopWords(), yield)
}

// IterRange walks the complement of a over the layer2-word range
// [from, to), descending through a's own summary layers when a exposes
// them (the hierarchy interface) so each summarized block absent from a
// is yielded as one run, and each block present in a is descended with
// one word test, never calling a.Contains per index: a mixed layer0 word
// at the bottom of a descent is complemented directly. Falls back to a flat
// per-index scan when a is some other Reader (a combinator view) that
// doesn't expose its own layers.
func (v notView) IterRange(from, to int, yield func(uint32) bool) {
	if to > v.TopWords() {
		to = v.TopWords()
	}
	h, ok := v.a.(hierarchy)
	if !ok {
		v.scanRange(from, to, yield)
		return
	}

	word3 := h.layer3Word()
	for b2 := from; b2 < to; b2++ {
		base2 := uint32(b2) * topSpan
		if base2 >= v.bound {
			return
		}
		if word3&(1<<uint(b2)) == 0 {
			if !v.yieldRun(base2, topSpan, yield) {
				return
			}
			continue
		}
		word2 := h.layer2Word(b2)
		for bit2 := 0; bit2 < wordBits; bit2++ {
			w1 := b2*wordBits + bit2
			base1 := uint32(w1) * midSpan
			if base1 >= v.bound {
				break
			}
			if word2&(1<<uint(bit2)) == 0 {
				if !v.yieldRun(base1, midSpan, yield) {
					return
				}
				continue
			}
			word1 := h.layer1Word(w1)
			for bit1 := 0; bit1 < wordBits; bit1++ {
				w0 := w1*wordBits + bit1
				base0 := uint32(w0) * lowSpan
				if base0 >= v.bound {
					break
				}
				if word1&(1<<uint(bit1)) == 0 {
					if !v.yieldRun(base0, lowSpan, yield) {
						return
					}
					continue
				}
				comp := ^h.layer0Word(w0)
				for comp != 0 {
					bit0 := bits.TrailingZeros64(comp)
					comp &= comp - 1
					i := base0 + uint32(bit0)
					if i >= v.bound {
						break
					}
					if !yield(i) {
						return
					}
				}
			}
		}
	}
}

// yieldRun calls yield for every index in [base, base+span) clamped to
// v.bound, with no per-index test against a: the caller has already
// established the whole span is absent from a via one summary-word test.
func (v notView) yieldRun(base, span uint32, yield func(uint32) bool) bool {
	end := base + span
	if end > v.bound {
		end = v.bound
	}
	for i := base; i < end; i++ {
		if !yield(i) {
			return false
		}
	}
	return true
}

func (v notView) scanRange(from, to int, yield func(uint32) bool) {
	lo := uint32(from) * topSpan
	hi := uint32(to) * topSpan
	if hi > v.bound {
		hi = v.bound
	}
	for i := lo; i < hi; i++ {
		if !v.a.Contains(i) {
			if !yield(i) {
				return
			}
		}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
