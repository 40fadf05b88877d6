package specs

import "fmt"

// Generation distinguishes successive occupants of a recycled slot. The
// sign carries liveness: positive means the slot holding this generation
// is currently alive, negative means it has been deleted. The magnitude
// increases by one on every create/delete transition at that slot, and
// zero is never issued.
type Generation int32

// IsAlive reports whether g denotes a live slot.
func (g Generation) IsAlive() bool { return g > 0 }

func firstGeneration() Generation { return 1 }

// nextAlive returns the generation a recycled (dead) slot receives when it
// is handed out again.
func (g Generation) nextAlive() (Generation, error) {
	if g >= 0 {
		panic("specs: nextAlive called on a live or zero generation")
	}
	mag := int64(-g) + 1
	if mag > int64(maxGenerationMagnitude) {
		return 0, &OverflowError{Reason: fmt.Sprintf("generation counter exhausted at magnitude %d", mag)}
	}
	return Generation(mag), nil
}

// nextDead returns the generation a live slot receives when it is deleted.
func (g Generation) nextDead() (Generation, error) {
	if g <= 0 {
		panic("specs: nextDead called on a dead or zero generation")
	}
	mag := int64(g) + 1
	if mag > int64(maxGenerationMagnitude) {
		return 0, &OverflowError{Reason: fmt.Sprintf("generation counter exhausted at magnitude %d", mag)}
	}
	return Generation(-mag), nil
}

const maxGenerationMagnitude = int32(1<<31 - 1)

// Entity is a generational handle naming one row across every registered
// component storage. Two entities are equal iff both fields match; an
// index is only meaningful alongside the generation that was live when
// the handle was issued.
type Entity struct {
	Index      uint32
	Generation Generation
}

func (e Entity) String() string {
	return fmt.Sprintf("Entity(%d:%d)", e.Index, e.Generation)
}
