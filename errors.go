package specs

import (
	"fmt"
	"reflect"
)

// AbsentResourceError is raised when a system fetches a resource by
// "expect" handle (read/write, not read_optional) and the world has
// never had that resource inserted or auto-set-up.
type AbsentResourceError struct {
	Type reflect.Type
}

func (e *AbsentResourceError) Error() string {
	return fmt.Sprintf("specs: resource %s absent from world", e.Type)
}

// ComponentNotRegisteredError is raised when code asks the world for a
// component storage that was never registered. Every component type a
// world will ever use must be registered up front, so this always
// indicates a wiring mistake, not runtime data.
type ComponentNotRegisteredError struct {
	Type reflect.Type
}

func (e *ComponentNotRegisteredError) Error() string {
	return fmt.Sprintf("specs: component type %s was never registered", e.Type)
}

// AliasingError reports more than one mutable accessor over the same
// component storage. MustJoin raises it, with Type nil, for a join that
// holds two Write terms over one storage: the join package knows the two
// terms alias the same storage but not its reflect.Type.
type AliasingError struct {
	Type reflect.Type
}

func (e *AliasingError) Error() string {
	if e.Type == nil {
		return "specs: more than one mutable accessor for the same storage in one join"
	}
	return fmt.Sprintf("specs: more than one mutable accessor for %s in one reservation", e.Type)
}

// StorageTypeMisuseError is raised when a component is registered with a
// storage variant that cannot represent it, such as a non-zero-sized type
// registered as NullStorage.
type StorageTypeMisuseError struct {
	Type   reflect.Type
	Reason string
}

func (e *StorageTypeMisuseError) Error() string {
	return fmt.Sprintf("specs: storage type misuse for %s: %s", e.Type, e.Reason)
}

// ComponentAlreadyRegisteredError is raised when a component type is
// registered a second time. Distinct from StorageTypeMisuseError, which
// covers a storage variant that can't represent the type at all.
type ComponentAlreadyRegisteredError struct {
	Type reflect.Type
}

func (e *ComponentAlreadyRegisteredError) Error() string {
	return fmt.Sprintf("specs: component type %s registered more than once", e.Type)
}

// OverflowError is raised when the entity allocator cannot mint another
// generation for a recycled index, or when CreateAtomic runs out of the
// allocator's fixed atomic capacity.
type OverflowError struct {
	Reason string
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("specs: overflow: %s", e.Reason)
}

// wrapf adds context to err without introducing a parallel exception
// object: callers that want a stack of context just use fmt.Errorf's %w
// and errors.Is/As against the typed values above.
func wrapf(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
