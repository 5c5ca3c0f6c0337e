package realtime

import (
	"context"
	"fmt"
)

// Step runs one tick synchronously: the pending batch is applied in order and
// the app advances one frame. A panic inside the tick is recovered, logged and
// returned as an error; the tick still counts.
func (rt *RealtimeRuntime) Step(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			rt.Logger().Printf("realtime: recovered panic in tick: %v", r)
			err = fmt.Errorf("tick panicked: %v", r)
		}
		rt.batchMu.Lock()
		rt.tickNum++
		rt.batchMu.Unlock()
	}()

	// Phase 1: Collect commands atomically
	commands := rt.collectCommands()

	// Phase 2: Sort for deterministic order
	sortCommands(commands)

	// Phase 3: Hand the batch to the app
	rt.dispatch(commands)

	// Phase 4: Run one frame
	return rt.Update(ctx)
}

// collectCommands atomically retrieves and clears the batch
func (rt *RealtimeRuntime) collectCommands() []CommandWithMeta {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	commands := rt.batch
	rt.batch = make([]CommandWithMeta, 0, cap(rt.batch))

	return commands
}

// dispatch forwards the sorted batch to the app queue. Update drains that
// queue FIFO, so the sorted order is the order commands run in.
func (rt *RealtimeRuntime) dispatch(commands []CommandWithMeta) {
	for _, c := range commands {
		if err := rt.Send(c.Command); err != nil {
			rt.Logger().Printf("realtime: dropped command seq=%d priority=%d: %v", c.SequenceNum, c.Priority, err)
		}
	}
}
