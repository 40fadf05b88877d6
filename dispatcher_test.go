package specs

import (
	"sync"
	"testing"

	"github.com/amethyst/specs/join"
)

type intSystem struct {
	reservations []Reservation
	run          func(w *World)
}

func (s *intSystem) Reservations() []Reservation { return s.reservations }
func (s *intSystem) Setup(w *World)              {}
func (s *intSystem) Run(w *World)                { s.run(w) }

// scenario 4: scheduler parallelism. A and B share no reservation and get
// no implicit edge; C writes Pos like A and picks up an implicit edge by
// insertion order.
func TestScenarioSchedulerParallelism(t *testing.T) {
	w := NewWorld()
	Register[Pos](w)
	Register[Vel](w)
	Register[Mass](w)

	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	a := &intSystem{
		reservations: []Reservation{WritesComponent[Pos](), ReadsComponent[Vel]()},
		run:          func(w *World) { record("A") },
	}
	b := &intSystem{
		reservations: []Reservation{WritesComponent[Mass](), ReadsComponent[Vel]()},
		run:          func(w *World) { record("B") },
	}
	c := &intSystem{
		reservations: []Reservation{WritesComponent[Pos]()},
		run:          func(w *World) { record("C") },
	}

	b2 := NewDispatcherBuilder().With(a, "A", nil).With(b, "B", nil).With(c, "C", nil)
	d, err := b2.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(d.sections) != 1 {
		t.Fatalf("got %d sections, want 1 (no barrier)", len(d.sections))
	}
	stages := d.sections[0].stages
	if len(stages) != 2 {
		t.Fatalf("got %d stages, want 2 (A‖B, then C)", len(stages))
	}
	first := map[int]bool{}
	for _, gi := range stages[0] {
		first[gi] = true
	}
	aIdx, bIdx, cIdx := b2.byName["A"], b2.byName["B"], b2.byName["C"]
	if !first[aIdx] || !first[bIdx] {
		t.Fatalf("expected A and B in the first stage together, stages=%v", stages)
	}
	if first[cIdx] {
		t.Fatal("C conflicts with A on Pos by insertion order and must not share A's stage")
	}

	d.Setup(w)
	d.Dispatch(w)

	if len(order) != 3 || order[2] != "C" {
		t.Fatalf("execution order = %v, want C last", order)
	}
}

// scenario 5: atomic entity creation during a dispatch.
func TestScenarioAtomicEntityCreation(t *testing.T) {
	w := NewWorld()
	Register[Pos](w)
	old := WithComponent(w.CreateEntity(), Pos(9)).Build()

	var created [3]Entity
	sys := &intSystem{
		reservations: nil,
		run: func(w *World) {
			for i := range created {
				e, err := w.Allocator.CreateAtomic()
				if err != nil {
					t.Fatalf("CreateAtomic: %v", err)
				}
				created[i] = e
			}
			w.Allocator.Delete(old)
		},
	}

	d, err := NewDispatcherBuilder().With(sys, "X", nil).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	d.Setup(w)
	d.Dispatch(w)

	for _, e := range created {
		if !w.IsAlive(e) {
			t.Fatalf("entity %v should be alive before maintain", e)
		}
	}
	if w.IsAlive(old) {
		t.Fatal("old should already read as dead before maintain (alive-path delete is immediate)")
	}

	w.Maintain()

	for _, e := range created {
		if !w.IsAlive(e) {
			t.Fatalf("entity %v should survive maintain", e)
		}
	}
	if w.IsAlive(old) {
		t.Fatal("old should remain dead after maintain")
	}
	if _, ok := ReadComponent[Pos](w).Get(old.Index); ok {
		t.Fatal("old's component storages should be cleared after maintain")
	}
}

func TestDispatcherDetectsCycle(t *testing.T) {
	a := &intSystem{run: func(*World) {}}
	b := &intSystem{run: func(*World) {}}
	_, err := NewDispatcherBuilder().With(a, "A", []string{"B"}).With(b, "B", []string{"A"}).Build()
	if err == nil {
		t.Fatal("expected a cycle error")
	}
}

func TestDispatcherBarrierSeparatesSections(t *testing.T) {
	w := NewWorld()
	Register[Pos](w)
	var order []string
	a := &intSystem{reservations: []Reservation{WritesComponent[Pos]()}, run: func(*World) { order = append(order, "A") }}
	c := &intSystem{reservations: []Reservation{WritesComponent[Pos]()}, run: func(*World) { order = append(order, "C") }}

	d, err := NewDispatcherBuilder().With(a, "A", nil).WithBarrier().With(c, "C", nil).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(d.sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(d.sections))
	}
	d.Setup(w)
	d.Dispatch(w)
	if len(order) != 2 || order[0] != "A" || order[1] != "C" {
		t.Fatalf("order = %v, want [A C]", order)
	}
}

func TestDispatcherThreadLocalRunsAfterStages(t *testing.T) {
	var order []string
	var mu sync.Mutex
	a := &intSystem{run: func(*World) { mu.Lock(); order = append(order, "A"); mu.Unlock() }}
	tl := &intSystem{run: func(*World) { mu.Lock(); order = append(order, "TL"); mu.Unlock() }}

	d, err := NewDispatcherBuilder().With(a, "A", nil).WithThreadLocal(tl, "TL", nil).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	w := NewWorld()
	d.Setup(w)
	d.Dispatch(w)
	if len(order) != 2 || order[1] != "TL" {
		t.Fatalf("order = %v, want thread-local system last", order)
	}
}

func TestDispatcherJoinDuringRun(t *testing.T) {
	w := NewWorld()
	Register[Pos](w)
	Register[Vel](w)
	WithComponent(WithComponent(w.CreateEntity(), Pos(0)), Vel(1)).Build()

	sys := &intSystem{
		reservations: []Reservation{WritesComponent[Pos](), ReadsComponent[Vel]()},
		run: func(w *World) {
			pos := WriteComponent[Pos](w)
			vel := ReadComponent[Vel](w)
			MustJoin(join.Each2(join.Write[Pos](pos), join.Read[Vel](vel), func(i uint32, p *Pos, v Vel) bool {
				*p += Pos(v)
				return true
			}))
		},
	}
	d, err := NewDispatcherBuilder().With(sys, "integrate", nil).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	d.Setup(w)
	d.Dispatch(w)

	got, _ := ReadComponent[Pos](w).Get(0)
	if got != 1 {
		t.Fatalf("Pos = %v, want 1", got)
	}
}

func TestMustJoinConvertsAliasingError(t *testing.T) {
	w := NewWorld()
	Register[Pos](w)
	pos := WriteComponent[Pos](w)

	defer func() {
		r := recover()
		if _, ok := r.(*AliasingError); !ok {
			t.Fatalf("recover() = %v (%T), want *AliasingError", r, r)
		}
	}()
	MustJoin(join.Each2(join.Write[Pos](pos), join.Write[Pos](pos), func(i uint32, a, b *Pos) bool {
		return true
	}))
}

func TestMustJoinNilIsNoop(t *testing.T) {
	MustJoin(nil)
}
