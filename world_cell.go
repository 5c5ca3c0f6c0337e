package ecsx

import (
	"fmt"
	"reflect"
	"sync"
)

// sharedAccess is the registry lent to a WorldCell and every token it issues.
type sharedAccess struct {
	mu       sync.Mutex
	registry AccessGuardRegistry
}

// WorldCell exposes guarded access to several resources of one World at a time.
// Opening a cell moves the World's access registry into a shared handle; Close
// moves it back, keeping whatever capacity it grew so later cells do not
// reallocate.
//
// Only one cell may be open on a World. The cell itself belongs to the
// goroutine that opened it, while the tokens it issues may be handed to other
// goroutines. Tokens must be released before the cell is closed.
type WorldCell struct {
	world  *World
	access *sharedAccess
	closed bool
}

// Cell opens a WorldCell on w. It panics if one is already open.
func (w *World) Cell() *WorldCell {
	if w.cell {
		panic(fmt.Sprintf("ecsx: a WorldCell is already open on %s", w.id))
	}
	w.cell = true
	c := &WorldCell{world: w, access: &sharedAccess{}}
	// Swap in an empty registry: the zero value holds no map, so this is free.
	c.access.registry, w.access = w.access, AccessGuardRegistry{}
	return c
}

// WithCell opens a cell, runs fn and closes the cell on every exit path.
func (w *World) WithCell(fn func(c *WorldCell) error) error {
	c := w.Cell()
	defer c.Close()
	return fn(c)
}

// Close hands the access registry back to the World. Calling Close more than
// once is a no-op.
func (c *WorldCell) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.access.mu.Lock()
	c.world.access, c.access.registry = c.access.registry, AccessGuardRegistry{}
	c.access.mu.Unlock()
	c.world.cell = false
}

func (c *WorldCell) assertOpen() {
	if c.closed {
		panic("ecsx: use of a closed WorldCell")
	}
}

// Borrow is a shared borrow of a resource. The pointed-to value must not be
// modified through it.
type Borrow[T any] struct {
	value    *T
	id       ResourceID
	access   *sharedAccess
	released bool
}

// Value returns the borrowed resource. Treat it as read-only.
func (b *Borrow[T]) Value() *T {
	return b.value
}

// ID returns the slot the borrow was acquired for.
func (b *Borrow[T]) ID() ResourceID {
	return b.id
}

// Release gives the shared borrow back. Only the first call has an effect.
func (b *Borrow[T]) Release() {
	b.access.mu.Lock()
	defer b.access.mu.Unlock()
	if b.released {
		return
	}
	b.released = true
	b.access.registry.DropRead(b.id)
}

// BorrowMut is a unique borrow of a resource.
type BorrowMut[T any] struct {
	value    *T
	id       ResourceID
	access   *sharedAccess
	released bool
}

// Value returns the borrowed resource for reading and writing.
func (b *BorrowMut[T]) Value() *T {
	return b.value
}

// ID returns the slot the borrow was acquired for.
func (b *BorrowMut[T]) ID() ResourceID {
	return b.id
}

// Release gives the unique borrow back. Only the first call has an effect.
func (b *BorrowMut[T]) Release() {
	b.access.mu.Lock()
	defer b.access.mu.Unlock()
	if b.released {
		return
	}
	b.released = true
	b.access.registry.DropWrite(b.id)
}

func newBorrow[T any](c *WorldCell, nonSend bool) (*Borrow[T], bool) {
	c.assertOpen()
	typ := reflect.TypeFor[T]()
	id, v, ok := c.world.lookup(typ, nonSend)
	if !ok {
		return nil, false
	}
	c.access.mu.Lock()
	granted := c.access.registry.Read(id)
	c.access.mu.Unlock()
	if !granted {
		panic(fmt.Sprintf("ecsx: attempted to immutably access %s, but it is already mutably borrowed", typ))
	}
	return &Borrow[T]{value: v.(*T), id: id, access: c.access}, true
}

func newBorrowMut[T any](c *WorldCell, nonSend bool) (*BorrowMut[T], bool) {
	c.assertOpen()
	typ := reflect.TypeFor[T]()
	id, v, ok := c.world.lookup(typ, nonSend)
	if !ok {
		return nil, false
	}
	c.access.mu.Lock()
	granted := c.access.registry.Write(id)
	c.access.mu.Unlock()
	if !granted {
		panic(fmt.Sprintf("ecsx: attempted to mutably access %s, but it is already borrowed", typ))
	}
	return &BorrowMut[T]{value: v.(*T), id: id, access: c.access}, true
}

// GetResource borrows the resource of type T for reading. It returns false if
// T is not stored in the World and panics if T is currently borrowed mutably.
func GetResource[T any](c *WorldCell) (*Borrow[T], bool) {
	return newBorrow[T](c, false)
}

// GetResourceMut borrows the resource of type T for writing. It returns false
// if T is not stored in the World and panics if T is borrowed in any way.
func GetResourceMut[T any](c *WorldCell) (*BorrowMut[T], bool) {
	return newBorrowMut[T](c, false)
}

// GetNonSend is GetResource for non-send resources.
func GetNonSend[T any](c *WorldCell) (*Borrow[T], bool) {
	return newBorrow[T](c, true)
}

// GetNonSendMut is GetResourceMut for non-send resources.
func GetNonSendMut[T any](c *WorldCell) (*BorrowMut[T], bool) {
	return newBorrowMut[T](c, true)
}

// WithResource borrows T for reading, runs fn and releases the borrow on
// every exit path. It returns false without calling fn if T is missing.
func WithResource[T any](c *WorldCell, fn func(v *T)) bool {
	b, ok := GetResource[T](c)
	if !ok {
		return false
	}
	defer b.Release()
	fn(b.Value())
	return true
}

// WithResourceMut borrows T for writing, runs fn and releases the borrow on
// every exit path. It returns false without calling fn if T is missing.
func WithResourceMut[T any](c *WorldCell, fn func(v *T)) bool {
	b, ok := GetResourceMut[T](c)
	if !ok {
		return false
	}
	defer b.Release()
	fn(b.Value())
	return true
}
