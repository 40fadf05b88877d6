package specs

import "testing"

func TestAllocatorCreateDeleteRoundTrip(t *testing.T) {
	a := NewEntityAllocator(8)
	e, err := a.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !a.IsAlive(e) {
		t.Fatal("freshly created entity should be alive")
	}
	a.Delete(e)
	if a.IsAlive(e) {
		t.Fatal("deleted entity should not be alive")
	}
}

func TestAllocatorRecyclesSlotWithBumpedGeneration(t *testing.T) {
	a := NewEntityAllocator(8)
	e1, _ := a.Create()
	a.Delete(e1)
	e2, err := a.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e2.Index != e1.Index {
		t.Fatalf("expected slot reuse: e1=%v e2=%v", e1, e2)
	}
	if e2.Generation == e1.Generation {
		t.Fatalf("expected generation to change on reuse: %v == %v", e1.Generation, e2.Generation)
	}
	if a.IsAlive(e1) {
		t.Fatal("stale handle e1 should no longer be alive")
	}
	if !a.IsAlive(e2) {
		t.Fatal("e2 should be alive")
	}
}

func TestAllocatorStaleDeleteIsNoop(t *testing.T) {
	a := NewEntityAllocator(8)
	e1, _ := a.Create()
	a.Delete(e1)
	e2, _ := a.Create() // reuses e1's slot with a new generation
	a.Delete(e1)        // stale handle, must not touch e2
	if !a.IsAlive(e2) {
		t.Fatal("deleting a stale handle must not affect the slot's live occupant")
	}
}

func TestAllocatorCreateAtomicVisibleViaAliveOrRaised(t *testing.T) {
	a := NewEntityAllocator(8)
	e, err := a.CreateAtomic()
	if err != nil {
		t.Fatalf("CreateAtomic: %v", err)
	}
	if !a.IsAlive(e) {
		t.Fatal("raised entity should report alive before Maintain")
	}
	seen := false
	a.AliveOrRaised().Iter(func(i uint32) bool {
		if i == e.Index {
			seen = true
		}
		return true
	})
	if !seen {
		t.Fatal("AliveOrRaised should include a this-tick raised entity")
	}
	if a.AliveMask().Contains(e.Index) {
		t.Fatal("AliveMask must not include a raised-but-not-yet-maintained entity")
	}
	dead := a.Maintain()
	if len(dead) != 0 {
		t.Fatalf("Maintain reported %d dead, want 0", len(dead))
	}
	if !a.AliveMask().Contains(e.Index) {
		t.Fatal("Maintain should fold a raised entity into the alive mask")
	}
}

func TestAllocatorDeleteRaisedBeforeMaintain(t *testing.T) {
	a := NewEntityAllocator(8)
	e, err := a.CreateAtomic()
	if err != nil {
		t.Fatalf("CreateAtomic: %v", err)
	}
	a.Delete(e)
	dead := a.Maintain()
	if len(dead) != 1 || dead[0] != e.Index {
		t.Fatalf("Maintain dead = %v, want [%d]", dead, e.Index)
	}
	if a.IsAlive(e) {
		t.Fatal("entity killed before its raise was ever maintained should never become alive")
	}
}

func TestAllocatorCreateAtomicExhaustsCapacity(t *testing.T) {
	a := NewEntityAllocator(2)
	if _, err := a.CreateAtomic(); err != nil {
		t.Fatalf("CreateAtomic 1: %v", err)
	}
	if _, err := a.CreateAtomic(); err != nil {
		t.Fatalf("CreateAtomic 2: %v", err)
	}
	if _, err := a.CreateAtomic(); err == nil {
		t.Fatal("expected OverflowError once atomic capacity is exhausted")
	}
}

func TestAllocatorMaintainReportsDead(t *testing.T) {
	a := NewEntityAllocator(8)
	e1, _ := a.Create()
	e2, _ := a.Create()
	a.Delete(e1) // reclaims the slot synchronously, but still queues it for the component cascade
	dead := a.Maintain()
	if len(dead) != 1 || dead[0] != e1.Index {
		t.Fatalf("Maintain dead = %v, want [%d]", dead, e1.Index)
	}
	if a.IsAlive(e1) {
		t.Fatal("e1 should be dead")
	}
	if !a.IsAlive(e2) {
		t.Fatal("e2 should remain alive")
	}
}
