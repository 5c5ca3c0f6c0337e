package ecsx

import (
	"fmt"
	"sync/atomic"
)

// WorldID uniquely identifies a World for the lifetime of the process.
// IDs are never reused, even after the World that held one is discarded.
type WorldID uint64

var maxWorldID atomic.Uint64

// newWorldID returns the next WorldID, or false once the supply is exhausted.
func newWorldID() (WorldID, bool) {
	for {
		cur := maxWorldID.Load()
		if cur == ^uint64(0) {
			return 0, false
		}
		if maxWorldID.CompareAndSwap(cur, cur+1) {
			return WorldID(cur), true
		}
	}
}

func (id WorldID) String() string {
	return fmt.Sprintf("world#%d", uint64(id))
}
