package specs

import (
	"sync"
	"sync/atomic"

	"github.com/amethyst/specs/bitset"
)

const noFree = ^uint32(0)

// EntityAllocator issues generational entity identifiers and tracks which
// slots are live. It exposes two disjoint mutation surfaces: Create and
// Delete's alive-path take a brief lock and are meant to run outside an
// active dispatch (construction time, or between ticks); CreateAtomic and
// the raised-path of Delete are lock-free and are the only surfaces
// systems may call concurrently during a dispatch. Mixing the two
// surfaces concurrently on the same allocator is a caller error, the same
// way mutating a slice while ranging over it is.
type EntityAllocator struct {
	mu          sync.Mutex
	generations []Generation
	freeNext    []uint32
	freeHead    atomic.Uint32
	nextFresh   atomic.Uint32
	capacity    uint32

	alive  *bitset.BitSet
	raised *bitset.AtomicBitSet
	killed *bitset.AtomicBitSet

	// pendingRemoval accumulates indices that left alive via the
	// immediate (non-atomic) Delete path, so Maintain can report them to
	// the world's component cascade alongside the killed-track indices.
	pendingRemoval []uint32
}

// NewEntityAllocator returns an allocator whose atomic create/delete
// surface can address up to capacity concurrently in-flight slots during
// one dispatch. Create (the non-atomic path) may grow past capacity
// between dispatches; CreateAtomic cannot and reports OverflowError once
// capacity is exhausted.
func NewEntityAllocator(capacity uint32) *EntityAllocator {
	a := &EntityAllocator{
		generations: make([]Generation, capacity),
		freeNext:    make([]uint32, capacity),
		capacity:    capacity,
		alive:       bitset.New(),
		raised:      bitset.NewAtomic(capacity),
		killed:      bitset.NewAtomic(capacity),
	}
	a.freeHead.Store(noFree)
	return a
}

// Create allocates a new entity immediately, recycling a freed slot if one
// is available. Must not be called concurrently with CreateAtomic/Delete
// on the same allocator.
func (a *EntityAllocator) Create() (Entity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if head := a.freeHead.Load(); head != noFree {
		gen, err := a.generations[head].nextAlive()
		if err != nil {
			return Entity{}, wrapf(err, "recycling slot %d", head)
		}
		a.freeHead.Store(a.freeNext[head])
		a.generations[head] = gen
		a.alive.Add(head)
		return Entity{Index: head, Generation: gen}, nil
	}

	i := a.nextFresh.Load()
	for uint32(len(a.generations)) <= i {
		a.generations = append(a.generations, 0)
		a.freeNext = append(a.freeNext, 0)
	}
	a.generations[i] = firstGeneration()
	a.nextFresh.Store(i + 1)
	a.alive.Add(i)
	return Entity{Index: i, Generation: a.generations[i]}, nil
}

// CreateAtomic reserves a slot during an active dispatch without taking
// the allocator's lock. The new entity is recorded in the raised track,
// not yet in alive; Maintain folds it in.
func (a *EntityAllocator) CreateAtomic() (Entity, error) {
	for {
		head := a.freeHead.Load()
		if head == noFree {
			break
		}
		next := a.freeNext[head]
		if a.freeHead.CompareAndSwap(head, next) {
			gen, err := a.generations[head].nextAlive()
			if err != nil {
				return Entity{}, wrapf(err, "recycling slot %d", head)
			}
			a.generations[head] = gen
			if !a.raised.Set(head) {
				return Entity{}, &OverflowError{Reason: "raised track capacity exceeded"}
			}
			return Entity{Index: head, Generation: gen}, nil
		}
	}

	i := a.nextFresh.Add(1) - 1
	if i >= a.capacity {
		return Entity{}, &OverflowError{Reason: "entity allocator atomic capacity exhausted"}
	}
	gen := firstGeneration()
	a.generations[i] = gen
	if !a.raised.Set(i) {
		return Entity{}, &OverflowError{Reason: "raised track capacity exceeded"}
	}
	return Entity{Index: i, Generation: gen}, nil
}

// Delete removes e. If e names a slot created earlier and still alive, the
// slot is reclaimed immediately and its index is queued in pendingRemoval
// so the next Maintain still reports it for the world's component
// cascade. If e names a slot raised earlier this dispatch (not yet folded
// into alive by Maintain), the index is recorded in the killed track
// instead, so Maintain can undo the raise without ever having published
// the entity as alive. A stale e (generation mismatch, or already dead)
// is a silent no-op, per the stale-entity-probe policy.
func (a *EntityAllocator) Delete(e Entity) {
	if a.raised.Contains(e.Index) {
		if int(e.Index) < len(a.generations) && a.generations[e.Index] == e.Generation {
			a.killed.Set(e.Index)
			return
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if int(e.Index) >= len(a.generations) {
		return
	}
	if !a.alive.Contains(e.Index) || a.generations[e.Index] != e.Generation {
		return
	}
	dead, err := e.Generation.nextDead()
	if err != nil {
		// The slot is permanently retired: leave it marked alive-but-dead
		// by generation so it can never again compare equal to a fresh
		// handle, and never return it to the free list.
		a.alive.Remove(e.Index)
		a.pendingRemoval = append(a.pendingRemoval, e.Index)
		return
	}
	a.alive.Remove(e.Index)
	a.generations[e.Index] = dead
	a.freeNext[e.Index] = a.freeHead.Load()
	a.freeHead.Store(e.Index)
	a.pendingRemoval = append(a.pendingRemoval, e.Index)
}

// IsAlive reports whether e names a currently live (or this-tick-raised)
// slot whose generation matches.
func (a *EntityAllocator) IsAlive(e Entity) bool {
	if int(e.Index) >= len(a.generations) {
		return false
	}
	if !a.alive.Contains(e.Index) && !a.raised.Contains(e.Index) {
		return false
	}
	return a.generations[e.Index] == e.Generation
}

// GenerationAt returns the generation currently recorded at index i, or
// zero if i has never been allocated.
func (a *EntityAllocator) GenerationAt(i uint32) Generation {
	a.mu.Lock()
	defer a.mu.Unlock()
	if int(i) >= len(a.generations) {
		return 0
	}
	return a.generations[i]
}

// AliveMask returns the allocator's live-slot bitset. Callers must not
// mutate it; between dispatches it reflects every live entity, during a
// dispatch it omits entities raised this tick (use AliveOrRaised for a
// join that must also see them).
func (a *EntityAllocator) AliveMask() *bitset.BitSet { return a.alive }

// AliveOrRaised returns a point-in-time view combining alive and raised,
// suitable as a join's Entities term during an active dispatch.
func (a *EntityAllocator) AliveOrRaised() bitset.Reader {
	return bitset.Or(a.alive, a.raised.Snapshot())
}

// Maintain folds raised into alive, reclaims every killed index, and
// returns the indices that died this call so the world can cascade
// component removal. Must not be called concurrently with CreateAtomic or
// the raised-path of Delete.
func (a *EntityAllocator) Maintain() []uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.raised.DrainInto(a.alive, nil)

	dead := a.pendingRemoval
	a.pendingRemoval = nil
	a.killed.DrainInto(nil, func(i uint32) {
		if int(i) >= len(a.generations) {
			return
		}
		a.alive.Remove(i)
		if g, err := a.generations[i].nextDead(); err == nil {
			a.generations[i] = g
			a.freeNext[i] = a.freeHead.Load()
			a.freeHead.Store(i)
		}
		dead = append(dead, i)
	})
	return dead
}
