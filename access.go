package ecsx

import "fmt"

// ResourceID is the slot identity of one resource inside a World.
// IDs are assigned in insertion order and stay stable for the World's lifetime.
type ResourceID uint32

// AccessCounter encodes the borrow state of one resource slot.
//
//	0     unique: one writer holds the slot
//	1     idle: nobody holds the slot
//	k>=2  shared: k-1 readers hold the slot
type AccessCounter uint32

const (
	UniqueAccess AccessCounter = 0
	BaseAccess   AccessCounter = 1
)

// IsUnique reports whether a writer holds the slot.
func (c AccessCounter) IsUnique() bool { return c == UniqueAccess }

// IsIdle reports whether the slot is free.
func (c AccessCounter) IsIdle() bool { return c == BaseAccess }

// Readers returns the number of outstanding readers.
func (c AccessCounter) Readers() int {
	if c <= BaseAccess {
		return 0
	}
	return int(c - BaseAccess)
}

func (c AccessCounter) String() string {
	switch {
	case c.IsUnique():
		return "unique"
	case c.IsIdle():
		return "idle"
	default:
		return fmt.Sprintf("shared(%d)", c.Readers())
	}
}

// AccessGuardRegistry tracks read/write borrows per resource slot.
// Absent entries behave as idle. The zero value is ready to use and does not
// allocate until the first acquisition.
//
// The registry itself is not synchronized; WorldCell guards it with a mutex.
type AccessGuardRegistry struct {
	access map[ResourceID]AccessCounter
}

func (r *AccessGuardRegistry) counter(id ResourceID) AccessCounter {
	if c, ok := r.access[id]; ok {
		return c
	}
	return BaseAccess
}

func (r *AccessGuardRegistry) set(id ResourceID, c AccessCounter) {
	if r.access == nil {
		r.access = make(map[ResourceID]AccessCounter)
	}
	r.access[id] = c
}

// Counter returns the current state of a slot.
func (r *AccessGuardRegistry) Counter(id ResourceID) AccessCounter {
	return r.counter(id)
}

// Read acquires shared access. It fails without side effects if a writer
// holds the slot.
func (r *AccessGuardRegistry) Read(id ResourceID) bool {
	c := r.counter(id)
	if c == UniqueAccess {
		return false
	}
	r.set(id, c+1)
	return true
}

// Write acquires unique access. It succeeds only when the slot is idle.
func (r *AccessGuardRegistry) Write(id ResourceID) bool {
	if r.counter(id) != BaseAccess {
		return false
	}
	r.set(id, UniqueAccess)
	return true
}

// DropRead releases one shared borrow. Releasing a slot that has no readers
// is a caller bug and panics rather than corrupting the counter.
func (r *AccessGuardRegistry) DropRead(id ResourceID) {
	c := r.counter(id)
	if c <= BaseAccess {
		panic(fmt.Sprintf("ecsx: read release on resource slot %d without a matching read (%s)", id, c))
	}
	r.set(id, c-1)
}

// DropWrite releases the unique borrow, returning the slot to idle.
func (r *AccessGuardRegistry) DropWrite(id ResourceID) {
	r.set(id, BaseAccess)
}

// Len returns the number of slots the registry has seen.
func (r *AccessGuardRegistry) Len() int {
	return len(r.access)
}
