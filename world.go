package specs

import (
	"reflect"
	"sync"

	"github.com/amethyst/specs/resource"
	"github.com/amethyst/specs/storage"
)

// DefaultEntityCapacity is the atomic create/delete capacity a World
// reserves when none is given explicitly.
const DefaultEntityCapacity = 1 << 16

type componentEntry struct {
	value    interface{}
	removeFn func(indices []uint32)
}

// World is the composition root: it owns the entity allocator, every
// registered component storage, every resource, and the lazy-update
// queue. Component storages are protected by the dispatcher's static
// reservation analysis, not by runtime locks (see Dispatcher); resources
// go through the Registry's own reader-writer reservation.
type World struct {
	Allocator *EntityAllocator
	Resources *resource.Registry
	Lazy      *LazyUpdate

	mu              sync.Mutex
	components      map[reflect.Type]*componentEntry
	pendingBuilders map[*EntityBuilder]struct{}
}

// NewWorld returns an empty world with the default atomic entity capacity.
func NewWorld() *World {
	return NewWorldWithCapacity(DefaultEntityCapacity)
}

// NewWorldWithCapacity is NewWorld, sizing the allocator's atomic
// create/delete capacity explicitly.
func NewWorldWithCapacity(capacity uint32) *World {
	return &World{
		Allocator:       NewEntityAllocator(capacity),
		Resources:       resource.New(),
		Lazy:            NewLazyUpdate(),
		components:      make(map[reflect.Type]*componentEntry),
		pendingBuilders: make(map[*EntityBuilder]struct{}),
	}
}

func componentType[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// RegisterWithStorage registers T's component storage explicitly as s.
// Panics with StorageTypeMisuseError if s is a Null storage and T is not
// zero-sized, and with ComponentAlreadyRegisteredError if T was already
// registered.
func RegisterWithStorage[T any](w *World, s storage.Storage[T]) {
	t := componentType[T]()
	if _, ok := interface{}(s).(*storage.Null[T]); ok && !storage.IsZeroSized[T]() {
		panic(&StorageTypeMisuseError{Type: t, Reason: "null storage requested for a non-zero-sized type"})
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.components[t]; ok {
		panic(&ComponentAlreadyRegisteredError{Type: t})
	}
	w.components[t] = &componentEntry{
		value: s,
		removeFn: func(indices []uint32) {
			for _, i := range indices {
				s.Remove(i)
			}
		},
	}
}

// Register registers T with the default storage backing (dense-vec). Use
// RegisterWithStorage to pick sparse-vec, default-vec, hashmap, null, or
// btree explicitly.
func Register[T any](w *World) {
	RegisterWithStorage[T](w, storage.NewDense[T]())
}

// RegisterFlagged wraps inner with event tracking and registers the
// result, returning the Flagged handle so the caller can reach its
// Channel().
func RegisterFlagged[T any](w *World, inner storage.Storage[T]) *storage.Flagged[T] {
	f := storage.NewFlagged[T](inner)
	RegisterWithStorage[T](w, f)
	return f
}

// HasComponent reports whether T has been registered.
func HasComponent[T any](w *World) bool {
	t := componentType[T]()
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.components[t]
	return ok
}

func componentEntryFor[T any](w *World) *componentEntry {
	t := componentType[T]()
	w.mu.Lock()
	e, ok := w.components[t]
	w.mu.Unlock()
	if !ok {
		panic(&ComponentNotRegisteredError{Type: t})
	}
	return e
}

// ReadComponent returns T's registered storage for read access. The
// dispatcher's static reservation analysis is what actually prevents
// concurrent conflicting access; this accessor itself does no locking,
// mirroring the "views without dynamic locking" invariant.
func ReadComponent[T any](w *World) storage.Storage[T] {
	return componentEntryFor[T](w).value.(storage.Storage[T])
}

// WriteComponent returns T's registered storage for mutation. See
// ReadComponent for the locking discussion; the two differ only in the
// reservation mode a SystemData declares, not in what they return.
func WriteComponent[T any](w *World) storage.Storage[T] {
	return componentEntryFor[T](w).value.(storage.Storage[T])
}

// ReadResource returns a shared accessor to resource R; release must be
// called to drop the reservation. Panics with *AbsentResourceError if R
// was never inserted and has no default, converting the resource
// package's own AbsentError into the root package's typed equivalent.
func ReadResource[R any](w *World) (value *R, release func()) {
	defer convertAbsentResource[R]()
	value, release = resource.Read[R](w.Resources)
	return
}

// WriteResource is ReadResource for an exclusive reservation.
func WriteResource[R any](w *World) (value *R, release func()) {
	defer convertAbsentResource[R]()
	value, release = resource.Write[R](w.Resources)
	return
}

func convertAbsentResource[R any]() {
	r := recover()
	if r == nil {
		return
	}
	if _, ok := r.(*resource.AbsentError); ok {
		panic(&AbsentResourceError{Type: resourceType[R]()})
	}
	panic(r)
}

// EntityBuilder accumulates components for one freshly created entity
// before Build finalizes it. An EntityBuilder whose Build is never called
// is swept and its partial entity deleted on the next Maintain.
type EntityBuilder struct {
	world  *World
	entity Entity
}

// CreateEntity allocates a new entity and returns a builder for attaching
// its initial components.
func (w *World) CreateEntity() *EntityBuilder {
	e, err := w.Allocator.Create()
	if err != nil {
		panic(err)
	}
	b := &EntityBuilder{world: w, entity: e}
	w.mu.Lock()
	w.pendingBuilders[b] = struct{}{}
	w.mu.Unlock()
	return b
}

// WithComponent attaches v to b's entity and returns b for chaining.
func WithComponent[T any](b *EntityBuilder, v T) *EntityBuilder {
	WriteComponent[T](b.world).Insert(b.entity.Index, v)
	return b
}

// Build finalizes b, returning the entity it assembled.
func (b *EntityBuilder) Build() Entity {
	b.world.mu.Lock()
	delete(b.world.pendingBuilders, b)
	b.world.mu.Unlock()
	return b.entity
}

// Delete deletes e. See EntityAllocator.Delete for the stale-handle policy.
func (w *World) Delete(e Entity) {
	w.Allocator.Delete(e)
}

// IsAlive reports whether e is currently live.
func (w *World) IsAlive(e Entity) bool {
	return w.Allocator.IsAlive(e)
}

// Maintain applies deferred work at a tick boundary: it drains the lazy
// queue in FIFO order, deletes any entity whose builder was never built,
// folds the allocator's raised/killed tracks, and removes the components
// of every entity that died this call from every registered storage.
func (w *World) Maintain() {
	for _, op := range w.Lazy.drain() {
		op.fn(w)
	}

	w.mu.Lock()
	for b := range w.pendingBuilders {
		w.Allocator.Delete(b.entity)
		delete(w.pendingBuilders, b)
	}
	w.mu.Unlock()

	dead := w.Allocator.Maintain()
	if len(dead) == 0 {
		return
	}

	w.mu.Lock()
	entries := make([]*componentEntry, 0, len(w.components))
	for _, c := range w.components {
		entries = append(entries, c)
	}
	w.mu.Unlock()

	for _, c := range entries {
		c.removeFn(dead)
	}
}
