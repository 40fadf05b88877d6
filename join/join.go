package join

import (
	"errors"

	"github.com/amethyst/specs/bitset"
)

// ErrAliasing is returned when a join would grant more than one mutable
// accessor over the same storage.
var ErrAliasing = errors.New("join: more than one mutable accessor for the same storage")

// ErrUnbounded is returned when every term in a join is unbounded (Not
// and/or Maybe only) and the join has no Entities or Bitset term to fix
// an iteration extent.
var ErrUnbounded = errors.New("join: no bounded term to establish an iteration extent")

func checkAliasing(terms []aliasedTerm) error {
	mutableSeen := make(map[interface{}]bool)
	for _, t := range terms {
		key := t.aliasKey()
		if key == nil || !t.mutable() {
			continue
		}
		if mutableSeen[key] {
			return ErrAliasing
		}
		mutableSeen[key] = true
	}
	return nil
}

func computeBound(terms []boundedTerm) (uint32, error) {
	maxWords := 0
	bounded := false
	for _, t := range terms {
		if t.unbounded() {
			continue
		}
		bounded = true
		if w := t.sourceMask(0).TopWords(); w > maxWords {
			maxWords = w
		}
	}
	if !bounded {
		return 0, ErrUnbounded
	}
	return uint32(maxWords) * topWordSpan, nil
}

// Each2 walks the entities satisfying both terms, in ascending index
// order, invoking fn with the index and each term's value. fn's return
// value controls continuation: returning false stops the walk early.
func Each2[A, B any](ta Term[A], tb Term[B], fn func(i uint32, a A, b B) bool) error {
	if err := checkAliasing([]aliasedTerm{ta, tb}); err != nil {
		return err
	}
	bound, err := computeBound([]boundedTerm{ta, tb})
	if err != nil {
		return err
	}
	combined := bitset.And(ta.sourceMask(bound), tb.sourceMask(bound))
	combined.Iter(func(i uint32) bool {
		return fn(i, ta.at(i), tb.at(i))
	})
	return nil
}

// Each3 is Each2 generalized to three terms.
func Each3[A, B, C any](ta Term[A], tb Term[B], tc Term[C], fn func(i uint32, a A, b B, c C) bool) error {
	if err := checkAliasing([]aliasedTerm{ta, tb, tc}); err != nil {
		return err
	}
	bound, err := computeBound([]boundedTerm{ta, tb, tc})
	if err != nil {
		return err
	}
	combined := bitset.And(bitset.And(ta.sourceMask(bound), tb.sourceMask(bound)), tc.sourceMask(bound))
	combined.Iter(func(i uint32) bool {
		return fn(i, ta.at(i), tb.at(i), tc.at(i))
	})
	return nil
}

// Each4 is Each2 generalized to four terms.
func Each4[A, B, C, D any](ta Term[A], tb Term[B], tc Term[C], td Term[D], fn func(i uint32, a A, b B, c C, d D) bool) error {
	if err := checkAliasing([]aliasedTerm{ta, tb, tc, td}); err != nil {
		return err
	}
	bound, err := computeBound([]boundedTerm{ta, tb, tc, td})
	if err != nil {
		return err
	}
	combined := bitset.And(
		bitset.And(ta.sourceMask(bound), tb.sourceMask(bound)),
		bitset.And(tc.sourceMask(bound), td.sourceMask(bound)),
	)
	combined.Iter(func(i uint32) bool {
		return fn(i, ta.at(i), tb.at(i), tc.at(i), td.at(i))
	})
	return nil
}

// Each5 is Each2 generalized to five terms.
func Each5[A, B, C, D, E any](ta Term[A], tb Term[B], tc Term[C], td Term[D], te Term[E], fn func(i uint32, a A, b B, c C, d D, e E) bool) error {
	if err := checkAliasing([]aliasedTerm{ta, tb, tc, td, te}); err != nil {
		return err
	}
	bound, err := computeBound([]boundedTerm{ta, tb, tc, td, te})
	if err != nil {
		return err
	}
	combined := bitset.And(
		bitset.And(
			bitset.And(ta.sourceMask(bound), tb.sourceMask(bound)),
			bitset.And(tc.sourceMask(bound), td.sourceMask(bound)),
		),
		te.sourceMask(bound),
	)
	combined.Iter(func(i uint32) bool {
		return fn(i, ta.at(i), tb.at(i), tc.at(i), td.at(i), te.at(i))
	})
	return nil
}
