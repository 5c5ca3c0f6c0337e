package ecsx

import (
	"fmt"
	"reflect"
)

// resourceData is one type-erased slot. value always holds a *T.
type resourceData struct {
	typ     reflect.Type
	value   any
	nonSend bool
}

// World is the shared resource store. Resources are keyed by Go type and
// each type maps to one stable ResourceID slot.
//
// A World is not safe for concurrent mutation. Concurrent systems share it
// through a WorldCell, whose borrow tokens enforce one writer XOR many readers
// per slot.
type World struct {
	id     WorldID
	ids    map[reflect.Type]ResourceID
	slots  []resourceData
	access AccessGuardRegistry
	cell   bool // a WorldCell currently holds the access registry
}

// NewWorld creates an empty World with a fresh WorldID.
func NewWorld() *World {
	id, ok := newWorldID()
	if !ok {
		panic("ecsx: exhausted WorldID supply")
	}
	return &World{
		id:  id,
		ids: make(map[reflect.Type]ResourceID),
	}
}

// ID returns the World's process-unique identity.
func (w *World) ID() WorldID {
	return w.id
}

// Len returns the number of live resources.
func (w *World) Len() int {
	n := 0
	for _, s := range w.slots {
		if s.value != nil {
			n++
		}
	}
	return n
}

func (w *World) assertNoCell(op string) {
	if w.cell {
		panic(fmt.Sprintf("ecsx: cannot %s while a WorldCell is open on %s", op, w.id))
	}
}

// slotID returns the slot for typ, allocating one on first use.
func (w *World) slotID(typ reflect.Type, nonSend bool) ResourceID {
	if id, ok := w.ids[typ]; ok {
		if w.slots[id].nonSend != nonSend {
			panic(fmt.Sprintf("ecsx: %s is already registered as a %s resource", typ, kindName(w.slots[id].nonSend)))
		}
		return id
	}
	id := ResourceID(len(w.slots))
	w.ids[typ] = id
	w.slots = append(w.slots, resourceData{typ: typ, nonSend: nonSend})
	return id
}

// lookup returns the live slot for typ with the requested kind.
func (w *World) lookup(typ reflect.Type, nonSend bool) (ResourceID, any, bool) {
	id, ok := w.ids[typ]
	if !ok {
		return 0, nil, false
	}
	s := w.slots[id]
	if s.value == nil || s.nonSend != nonSend {
		return 0, nil, false
	}
	return id, s.value, true
}

func kindName(nonSend bool) string {
	if nonSend {
		return "non-send"
	}
	return "shared"
}

func insert[T any](w *World, value T, nonSend bool) {
	w.assertNoCell("insert a resource")
	id := w.slotID(reflect.TypeFor[T](), nonSend)
	v := value
	w.slots[id].value = &v
}

func get[T any](w *World, nonSend bool) (*T, bool) {
	_, v, ok := w.lookup(reflect.TypeFor[T](), nonSend)
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// InsertResource stores value as the World's resource of type T, replacing any
// previous value. The slot identity of T is kept across replacements.
func InsertResource[T any](w *World, value T) {
	insert(w, value, false)
}

// InsertNonSend stores a resource that must only be touched by the goroutine
// driving the World (e.g. a handle bound to the main thread).
func InsertNonSend[T any](w *World, value T) {
	insert(w, value, true)
}

// Resource returns the resource of type T.
func Resource[T any](w *World) (*T, bool) {
	w.assertNoCell("access a resource directly")
	return get[T](w, false)
}

// MustResource returns the resource of type T and panics if it is missing.
func MustResource[T any](w *World) *T {
	v, ok := Resource[T](w)
	if !ok {
		panic(fmt.Sprintf("ecsx: resource requested does not exist: %s", reflect.TypeFor[T]()))
	}
	return v
}

// NonSend returns the non-send resource of type T.
func NonSend[T any](w *World) (*T, bool) {
	w.assertNoCell("access a resource directly")
	return get[T](w, true)
}

// ContainsResource reports whether a shared or non-send resource of type T exists.
func ContainsResource[T any](w *World) bool {
	id, ok := w.ids[reflect.TypeFor[T]()]
	return ok && w.slots[id].value != nil
}

// RemoveResource removes and returns the resource of type T. The slot stays
// reserved so re-insertion reuses the same ResourceID.
func RemoveResource[T any](w *World) (T, bool) {
	w.assertNoCell("remove a resource")
	var zero T
	id, ok := w.ids[reflect.TypeFor[T]()]
	if !ok || w.slots[id].value == nil {
		return zero, false
	}
	v := w.slots[id].value.(*T)
	w.slots[id].value = nil
	return *v, true
}

// ResourceIDOf returns the slot identity of T, if T was ever inserted.
func ResourceIDOf[T any](w *World) (ResourceID, bool) {
	id, ok := w.ids[reflect.TypeFor[T]()]
	return id, ok
}

// AccessCounter returns the resting borrow state of T's slot. Outside a
// WorldCell every slot should read idle.
func (w *World) AccessCounter(id ResourceID) AccessCounter {
	return w.access.Counter(id)
}
