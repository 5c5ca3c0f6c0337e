// Package realtime provides a tick-based deterministic runtime for ecsx apps.
//
// The real-time runtime differs from driving core.App directly in command
// dispatch:
//   - Commands are batched and applied at fixed tick boundaries
//   - Deterministic command ordering via priority and sequence numbers
//   - Fixed time-step execution (e.g., 60 FPS)
//
// # Example Usage
//
//	app := core.NewApp()
//	_ = core.TrackState(app, menu)
//	rt := realtime.NewRuntime(app, realtime.Config{
//		TickRate: 16667 * time.Microsecond, // 60 FPS
//	})
//	_ = rt.Start(ctx)
//	defer rt.Stop()
//	_ = rt.SendCommand(core.StateCommand(func(s *ecsx.State[screen]) error {
//		return s.Push(playing)
//	}))
//
// # Command Ordering Guarantees
//
// Commands are ordered deterministically using:
//  1. Priority (higher priority applied first)
//  2. Sequence number (FIFO for same priority)
//
// Given the same sequence of SendCommand calls between ticks, the app
// always observes the same state transitions, regardless of which goroutine
// submitted them.
//
// # Stepping
//
// Step runs a single tick synchronously and is what the ticker goroutine
// calls. Tests and replays call it directly instead of Start to avoid any
// dependence on wall-clock time.
//
// # Use Cases
//
//   - Game loops (60 FPS menu/playing/paused stacks)
//   - Fixed time-step simulations
//   - Reproducible test scenarios
package realtime
