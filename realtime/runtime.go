package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/comalice/ecsx/internal/core"
)

// ErrStopped is returned by Start once Stop has been called.
var ErrStopped = errors.New("realtime: runtime stopped")

// RealtimeRuntime provides tick-based deterministic execution by embedding
// core.App and replacing only how commands reach it: they are batched and
// applied at fixed tick boundaries in priority order.
type RealtimeRuntime struct {
	*core.App

	tickRate time.Duration
	ticker   *time.Ticker
	tickNum  uint64

	// Command batching (replaces direct App.Send)
	batch       []CommandWithMeta
	batchMu     sync.Mutex
	sequenceNum uint64

	tickCtx    context.Context
	tickCancel context.CancelFunc
	started    bool
	halted     bool
	stopOnce   sync.Once
	stopped    chan struct{}
}

// Config configures the real-time runtime
type Config struct {
	TickRate           time.Duration // Fixed tick rate (e.g., 16.67ms for 60 FPS)
	MaxCommandsPerTick int           // Command batch capacity (default: 1000)
}

// NewRuntime creates a tick-based runtime around app.
func NewRuntime(app *core.App, cfg Config) *RealtimeRuntime {
	if cfg.MaxCommandsPerTick <= 0 {
		cfg.MaxCommandsPerTick = 1000
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 16667 * time.Microsecond // Default 60 FPS
	}

	return &RealtimeRuntime{
		App:      app,
		tickRate: cfg.TickRate,
		batch:    make([]CommandWithMeta, 0, cfg.MaxCommandsPerTick),
		stopped:  make(chan struct{}),
	}
}

// Start begins tick-based execution. The first frame runs on the first tick.
func (rt *RealtimeRuntime) Start(ctx context.Context) error {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	if rt.halted {
		return ErrStopped
	}
	if rt.started {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	rt.started = true

	rt.tickCtx, rt.tickCancel = context.WithCancel(ctx)
	rt.ticker = time.NewTicker(rt.tickRate)

	go rt.tickLoop()

	return nil
}

// Stop halts the tick loop and waits for it to exit. Safe to call more than
// once, and before Start.
func (rt *RealtimeRuntime) Stop() error {
	rt.stopOnce.Do(func() {
		rt.batchMu.Lock()
		started := rt.started
		rt.halted = true
		rt.batchMu.Unlock()

		if !started {
			close(rt.stopped)
			return
		}
		rt.tickCancel()
		rt.ticker.Stop()
		<-rt.stopped
	})
	return nil
}

// tickLoop is the main tick execution loop
func (rt *RealtimeRuntime) tickLoop() {
	defer close(rt.stopped)

	for {
		select {
		case <-rt.tickCtx.Done():
			return
		case <-rt.ticker.C:
			if err := rt.Step(rt.tickCtx); err != nil && rt.tickCtx.Err() == nil {
				rt.Logger().Printf("realtime: tick %d: %v", rt.GetTickNumber(), err)
			}
		}
	}
}

// SendCommand queues cmd for the next tick (thread-safe).
func (rt *RealtimeRuntime) SendCommand(cmd core.Command) error {
	return rt.SendCommandWithPriority(cmd, 0)
}

// SendCommandWithPriority queues cmd for the next tick. Higher priorities are
// applied first; equal priorities keep submission order.
func (rt *RealtimeRuntime) SendCommandWithPriority(cmd core.Command, priority int) error {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	if len(rt.batch) >= cap(rt.batch) {
		return core.ErrQueueFull
	}

	rt.batch = append(rt.batch, CommandWithMeta{
		Command:     cmd,
		SequenceNum: rt.sequenceNum,
		Priority:    priority,
	})
	rt.sequenceNum++

	return nil
}

// GetTickNumber returns the number of completed ticks.
func (rt *RealtimeRuntime) GetTickNumber() uint64 {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	return rt.tickNum
}

// TickRate returns the configured tick period.
func (rt *RealtimeRuntime) TickRate() time.Duration {
	return rt.tickRate
}
