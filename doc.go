// Package specs is a parallel entity-component-system runtime: a World
// holds entities, their component storages, and shared resources; systems
// declare their storage/resource reservations up front so a Dispatcher
// can schedule conflict-free systems onto separate goroutines.
//
// Subpackages:
//
//   - bitset: hierarchical occupancy bitsets, plain and lock-free atomic.
//   - storage: component storage variants sharing one Storage[T] contract.
//   - join: multi-term intersection iteration over component storages.
//   - resource: type-keyed, reader-writer-locked shared state.
package specs
