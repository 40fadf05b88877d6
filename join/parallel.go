package join

import (
	"sync"

	"github.com/amethyst/specs/bitset"
)

// Executor runs join partitions as independent tasks. The core join
// algorithm depends only on this interface, not on a specific runtime, so
// a caller can substitute a work-stealing pool without touching the join
// logic itself.
type Executor interface {
	// Spawn schedules task to run, possibly concurrently with other
	// spawned tasks and with the caller.
	Spawn(task func())
	// Join blocks until every task spawned since the last Join call has
	// finished.
	Join()
}

// WaitGroupExecutor is the default Executor: it starts one goroutine per
// spawned task and joins them with a sync.WaitGroup.
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

func partitionRanges(topWords, workers int) [][2]int {
	if workers < 1 {
		workers = 1
	}
	if topWords == 0 {
		return nil
	}
	chunk := (topWords + workers - 1) / workers
	if chunk == 0 {
		chunk = 1
	}
	var ranges [][2]int
	for from := 0; from < topWords; from += chunk {
		to := from + chunk
		if to > topWords {
			to = topWords
		}
		ranges = append(ranges, [2]int{from, to})
	}
	return ranges
}

// ParallelEach2 is Each2, but partitions the combined mask's top-layer
// words across workers and runs each partition as a separate task on exec.
// fn is called concurrently from different partitions; since each index
// appears in exactly one partition, concurrent calls never race on the
// same index, but fn must not mutate state shared across indices without
// its own synchronization.
func ParallelEach2[A, B any](exec Executor, workers int, ta Term[A], tb Term[B], fn func(i uint32, a A, b B) bool) error {
	if err := checkAliasing([]aliasedTerm{ta, tb}); err != nil {
		return err
	}
	bound, err := computeBound([]boundedTerm{ta, tb})
	if err != nil {
		return err
	}
	combined := bitset.And(ta.sourceMask(bound), tb.sourceMask(bound))
	for _, r := range partitionRanges(combined.TopWords(), workers) {
		from, to := r[0], r[1]
		exec.Spawn(func() {
			combined.IterRange(from, to, func(i uint32) bool {
				return fn(i, ta.at(i), tb.at(i))
			})
		})
	}
	exec.Join()
	return nil
}

// ParallelEach3 is Each3 partitioned across exec the way ParallelEach2
// partitions Each2.
func ParallelEach3[A, B, C any](exec Executor, workers int, ta Term[A], tb Term[B], tc Term[C], fn func(i uint32, a A, b B, c C) bool) error {
	if err := checkAliasing([]aliasedTerm{ta, tb, tc}); err != nil {
		return err
	}
	bound, err := computeBound([]boundedTerm{ta, tb, tc})
	if err != nil {
		return err
	}
	combined := bitset.And(bitset.And(ta.sourceMask(bound), tb.sourceMask(bound)), tc.sourceMask(bound))
	for _, r := range partitionRanges(combined.TopWords(), workers) {
		from, to := r[0], r[1]
		exec.Spawn(func() {
			combined.IterRange(from, to, func(i uint32) bool {
				return fn(i, ta.at(i), tb.at(i), tc.at(i))
			})
		})
	}
	exec.Join()
	return nil
}
