package specs

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/amethyst/specs/join"
	"github.com/zephyrtronium/contains"
)

type systemNode struct {
	name        string
	system      System
	deps        []string
	barrier     bool
	threadLocal bool
}

// DispatcherBuilder assembles a sequence of systems, explicit dependency
// edges, barriers, and a thread-local tail into a Dispatcher. Use With for
// a parallel-eligible system, WithBarrier to force a full join, and
// WithThreadLocal for a system that must run sequentially after every
// parallel section (non-Send work such as rendering).
type DispatcherBuilder struct {
	nodes  []*systemNode
	byName map[string]int
	exec   Executor
	debug  bool
}

// NewDispatcherBuilder returns an empty builder.
func NewDispatcherBuilder() *DispatcherBuilder {
	return &DispatcherBuilder{byName: make(map[string]int)}
}

// With registers system s under name, depending on the named systems in
// deps. Names are resolved at Build, so a dependency may be registered
// before or after s; Build reports an unknown name, a cycle, or a
// dependency on a system in a later barrier-delimited section as an error.
func (b *DispatcherBuilder) With(s System, name string, deps []string) *DispatcherBuilder {
	b.addNode(&systemNode{name: name, system: s, deps: append([]string(nil), deps...)})
	return b
}

// WithThreadLocal is like With, but the system is appended to the
// sequential thread-local tail that runs after every parallel section
// completes, rather than being scheduled for parallel execution.
func (b *DispatcherBuilder) WithThreadLocal(s System, name string, deps []string) *DispatcherBuilder {
	b.addNode(&systemNode{name: name, system: s, deps: append([]string(nil), deps...), threadLocal: true})
	return b
}

// WithBarrier inserts a synthetic join point: every system registered
// before it completes before any system registered after it starts.
func (b *DispatcherBuilder) WithBarrier() *DispatcherBuilder {
	idx := len(b.nodes)
	b.addNode(&systemNode{name: fmt.Sprintf("__barrier_%d", idx), barrier: true})
	return b
}

// WithExecutor overrides the default goroutine-per-task executor.
func (b *DispatcherBuilder) WithExecutor(exec Executor) *DispatcherBuilder {
	b.exec = exec
	return b
}

// WithDebug turns on stage annotation printed to stderr at dispatch time:
// each stage's system names and each thread-local system's name. Implicit
// edges are not printed.
func (b *DispatcherBuilder) WithDebug(debug bool) *DispatcherBuilder {
	b.debug = debug
	return b
}

func (b *DispatcherBuilder) addNode(n *systemNode) {
	if _, dup := b.byName[n.name]; dup {
		panic(fmt.Sprintf("specs: duplicate system name %q", n.name))
	}
	b.byName[n.name] = len(b.nodes)
	b.nodes = append(b.nodes, n)
}

// section is one barrier-delimited run of nodes, already layered into
// parallel stages by Build.
type section struct {
	stages      [][]int
	threadLocal []int
}

// Dispatcher runs a pre-built system graph against a world, tick after
// tick.
type Dispatcher struct {
	nodes    []*systemNode
	sections []section
	exec     Executor
	debug    atomic.Bool
}

// SetDebug toggles stage annotation (see WithDebug) for subsequent
// Dispatch calls.
func (d *Dispatcher) SetDebug(debug bool) {
	d.debug.Store(debug)
}

// Build resolves explicit and implicit edges, detects cycles, and
// produces a Dispatcher. Implicit edges are added between two systems in
// the same barrier-delimited section whose reservations conflict and
// which have no explicit edge between them already; ties are broken by
// insertion order, earlier system first.
func (b *DispatcherBuilder) Build() (*Dispatcher, error) {
	sections, err := b.layout()
	if err != nil {
		return nil, err
	}
	exec := b.exec
	if exec == nil {
		exec = NewWaitGroupExecutor()
	}
	d := &Dispatcher{nodes: b.nodes, sections: sections, exec: exec}
	d.debug.Store(b.debug)
	return d, nil
}

func (b *DispatcherBuilder) layout() ([]section, error) {
	var sections []section
	var current []int

	flush := func() error {
		if len(current) == 0 {
			return nil
		}
		sec, err := b.buildSection(current)
		if err != nil {
			return err
		}
		sections = append(sections, sec)
		current = nil
		return nil
	}

	for i, n := range b.nodes {
		if n.barrier {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		current = append(current, i)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return sections, nil
}

// buildSection computes the conflict graph over indices (all belonging to
// the same barrier-delimited run), detects cycles, and layers the result
// into Kahn's-algorithm stages.
func (b *DispatcherBuilder) buildSection(indices []int) (section, error) {
	pos := make(map[int]int, len(indices)) // global node index -> position within this section
	for p, i := range indices {
		pos[i] = p
	}

	n := len(indices)
	successors := make([][]int, n)
	hasEdge := make([][]bool, n)
	for i := range hasEdge {
		hasEdge[i] = make([]bool, n)
	}
	indeg := make([]int, n)

	addEdge := func(from, to int) {
		if from == to || hasEdge[from][to] {
			return
		}
		hasEdge[from][to] = true
		successors[from] = append(successors[from], to)
		indeg[to]++
	}

	// Explicit edges first, so implicit-edge construction can see them.
	for p, gi := range indices {
		node := b.nodes[gi]
		for _, depName := range node.deps {
			depGlobal, ok := b.byName[depName]
			if !ok {
				return section{}, fmt.Errorf("specs: system %q depends on unknown system %q", node.name, depName)
			}
			depPos, inSection := pos[depGlobal]
			if !inSection {
				if depGlobal > gi {
					return section{}, fmt.Errorf("specs: system %q depends on %q, which is registered after a barrier that follows it", node.name, depName)
				}
				// Dependency lives in an earlier barrier-delimited
				// section; the barrier already orders it before p.
				continue
			}
			addEdge(depPos, p)
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if hasEdge[i][j] || hasEdge[j][i] {
				continue
			}
			if reservationsConflict(b.nodes[indices[i]], b.nodes[indices[j]]) {
				addEdge(i, j)
			}
		}
	}

	stages, err := topoLayer(n, successors, indeg)
	if err != nil {
		return section{}, err
	}

	var sec section
	for _, stage := range stages {
		var parallel []int
		for _, p := range stage {
			gi := indices[p]
			if b.nodes[gi].threadLocal {
				sec.threadLocal = append(sec.threadLocal, gi)
			} else {
				parallel = append(parallel, gi)
			}
		}
		if len(parallel) > 0 {
			sec.stages = append(sec.stages, parallel)
		}
	}
	return sec, nil
}

func reservationsConflict(a, b *systemNode) bool {
	for _, ra := range a.system.Reservations() {
		for _, rb := range b.system.Reservations() {
			if ra.conflicts(rb) {
				return true
			}
		}
	}
	return false
}

// topoLayer runs Kahn's algorithm, grouping each round of zero-in-degree
// nodes into one stage, and using a contains.Set as the scheduled-node
// marker to detect a cycle: if nodes remain unscheduled once no node has
// indegree zero, the graph has a cycle.
func topoLayer(n int, successors [][]int, indeg []int) ([][]int, error) {
	remaining := indeg
	scheduled := contains.Set{}
	var stages [][]int
	total := 0

	for total < n {
		var stage []int
		for i := 0; i < n; i++ {
			if scheduled.Contains(uintptr(i)) {
				continue
			}
			if remaining[i] == 0 {
				stage = append(stage, i)
			}
		}
		if len(stage) == 0 {
			return nil, fmt.Errorf("specs: dependency cycle detected among %d unresolved systems", n-total)
		}
		for _, i := range stage {
			scheduled.Add(uintptr(i))
		}
		total += len(stage)
		for _, i := range stage {
			for _, j := range successors[i] {
				remaining[j]--
			}
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// Setup visits every system once, in insertion order, calling Setup. Must
// be called once before the first Dispatch.
func (d *Dispatcher) Setup(w *World) {
	for _, n := range d.nodes {
		if n.barrier {
			continue
		}
		n.system.Setup(w)
	}
}

// Dispatch runs one tick: each section's stages execute in order, each
// stage's systems run concurrently on the executor, and each section's
// thread-local systems run sequentially afterward. A panic inside any
// system propagates out of Dispatch: a panic in a concurrently run system
// is recovered on its goroutine and raised again once its stage has
// joined. The world is left exactly as whatever mutations had already
// completed, since no system here holds a lock whose release depends on
// normal return.
func (d *Dispatcher) Dispatch(w *World) {
	debug := d.debug.Load()
	for si, sec := range d.sections {
		for pi, stage := range sec.stages {
			if debug {
				fmt.Fprintf(os.Stderr, "specs: section %d stage %d: %s\n", si, pi, d.stageNames(stage))
			}
			if len(stage) == 1 {
				d.nodes[stage[0]].system.Run(w)
				continue
			}
			var caught atomic.Pointer[interface{}]
			for _, gi := range stage {
				node := d.nodes[gi]
				d.exec.Spawn(func() {
					defer func() {
						if r := recover(); r != nil {
							caught.CompareAndSwap(nil, &r)
						}
					}()
					node.system.Run(w)
				})
			}
			d.exec.Join()
			if p := caught.Load(); p != nil {
				panic(*p)
			}
		}
		for _, gi := range sec.threadLocal {
			if debug {
				fmt.Fprintf(os.Stderr, "specs: section %d thread-local: %s\n", si, d.nodes[gi].name)
			}
			d.nodes[gi].system.Run(w)
		}
	}
}

// MustJoin panics if err is non-nil. A System's Run typically calls this
// around a join.Each2/Each3/... built from storages reserved through
// Read/WriteComponent: the dispatcher's static analysis already rules out
// concurrent conflicting reservations, so the only errors a join can still
// raise are programmer mistakes inside that one Run call, such as passing
// the same storage to two Write terms. join's own ErrAliasing sentinel is
// converted to *AliasingError so the caller can recover and match on a
// typed error instead of comparing against the join package directly.
func MustJoin(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, join.ErrAliasing) {
		panic(&AliasingError{})
	}
	panic(err)
}

func (d *Dispatcher) stageNames(stage []int) string {
	names := make([]string, len(stage))
	for i, gi := range stage {
		names[i] = d.nodes[gi].name
	}
	return fmt.Sprint(names)
}
