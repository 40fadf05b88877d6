package specs

import "sync"

// Executor runs a dispatch stage's systems as independent tasks. The
// dispatcher depends only on this interface, not a specific runtime, so a
// host can substitute a work-stealing pool without touching the
// scheduling logic. Mirrors the join package's Executor; kept as a
// separate type because a dispatcher task is a whole system run; a join
// package task is a bitset partition, and the two should be free to use
// different pools.
type Executor interface {
	Spawn(task func())
	Join()
}

// WaitGroupExecutor starts one goroutine per spawned task and joins them
// with a sync.WaitGroup. It is the default Executor for a Dispatcher built
// without an explicit one.
type WaitGroupExecutor struct {
	wg sync.WaitGroup
}

// NewWaitGroupExecutor returns a ready-to-use goroutine-per-task executor.
func NewWaitGroupExecutor() *WaitGroupExecutor {
	return &WaitGroupExecutor{}
}

func (e *WaitGroupExecutor) Spawn(task func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		task()
	}()
}

func (e *WaitGroupExecutor) Join() {
	e.wg.Wait()
}

// BoundedExecutor is a WaitGroupExecutor whose concurrent task count is
// capped by a buffered-channel semaphore, for hosts that want a stable
// worker count instead of one goroutine per stage member.
type BoundedExecutor struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

// NewBoundedExecutor returns an executor that runs at most workers tasks
// concurrently. workers must be positive.
func NewBoundedExecutor(workers int) *BoundedExecutor {
	if workers <= 0 {
		panic("specs: NewBoundedExecutor requires workers > 0")
	}
	return &BoundedExecutor{sem: make(chan struct{}, workers)}
}

func (e *BoundedExecutor) Spawn(task func()) {
	e.wg.Add(1)
	e.sem <- struct{}{}
	go func() {
		defer e.wg.Done()
		defer func() { <-e.sem }()
		task()
	}()
}

func (e *BoundedExecutor) Join() {
	e.wg.Wait()
}
