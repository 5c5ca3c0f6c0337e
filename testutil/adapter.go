// Package testutil runs the same state-stack scenarios against a directly
// stepped core.App and the tick-based realtime runtime, and records the
// transitions an app publishes.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comalice/ecsx"
	"github.com/comalice/ecsx/internal/core"
	"github.com/comalice/ecsx/realtime"
)

// ErrTimeout is returned when a runtime does not answer in time.
var ErrTimeout = errors.New("testutil: timed out")

// maxSettleFrames bounds WaitForStability on a stepped app; observers that
// keep queueing transitions would otherwise spin forever.
const maxSettleFrames = 16

// RuntimeAdapter provides a common interface for both the stepped app and the
// tick-based runtime. This allows running the same test suite on both.
type RuntimeAdapter[T comparable] interface {
	Start(ctx context.Context) error
	Stop() error
	Send(cmd core.Command) error
	Stack() []T
	IsInState(state T) bool
	WaitForStability(timeout time.Duration) error
}

// StepAdapter drives a core.App by calling Update from the test goroutine.
type StepAdapter[T comparable] struct {
	app *core.App
	ctx context.Context
}

// NewStepAdapter tracks initial on app and returns an adapter stepping it.
func NewStepAdapter[T comparable](app *core.App, initial T) (*StepAdapter[T], error) {
	if err := core.TrackState(app, initial); err != nil {
		return nil, err
	}
	return &StepAdapter[T]{app: app, ctx: context.Background()}, nil
}

func (a *StepAdapter[T]) Start(ctx context.Context) error {
	a.ctx = ctx
	return a.app.Update(ctx)
}

func (a *StepAdapter[T]) Stop() error {
	return nil
}

func (a *StepAdapter[T]) Send(cmd core.Command) error {
	return a.app.Send(cmd)
}

func (a *StepAdapter[T]) Stack() []T {
	return ecsx.MustResource[ecsx.State[T]](a.app.World()).Stack()
}

func (a *StepAdapter[T]) IsInState(state T) bool {
	return ecsx.MustResource[ecsx.State[T]](a.app.World()).Current() == state
}

// WaitForStability steps until no transition is scheduled. The timeout is
// unused; frames run synchronously.
func (a *StepAdapter[T]) WaitForStability(time.Duration) error {
	for range maxSettleFrames {
		if err := a.app.Update(a.ctx); err != nil {
			return err
		}
		if _, pending := ecsx.MustResource[ecsx.State[T]](a.app.World()).Scheduled(); !pending {
			return nil
		}
	}
	return fmt.Errorf("stack still changing after %d frames", maxSettleFrames)
}

// TickAdapter wraps the tick-based runtime. Reads go through a command so
// they never race the tick goroutine.
type TickAdapter[T comparable] struct {
	rt      *realtime.RealtimeRuntime
	timeout time.Duration
}

// NewTickAdapter tracks initial on app and wraps it in a realtime runtime
// ticking at tickRate.
func NewTickAdapter[T comparable](app *core.App, initial T, tickRate time.Duration) (*TickAdapter[T], error) {
	if err := core.TrackState(app, initial); err != nil {
		return nil, err
	}
	return &TickAdapter[T]{
		rt:      realtime.NewRuntime(app, realtime.Config{TickRate: tickRate}),
		timeout: 100 * tickRate,
	}, nil
}

// Runtime exposes the wrapped runtime.
func (a *TickAdapter[T]) Runtime() *realtime.RealtimeRuntime {
	return a.rt
}

func (a *TickAdapter[T]) Start(ctx context.Context) error {
	return a.rt.Start(ctx)
}

func (a *TickAdapter[T]) Stop() error {
	return a.rt.Stop()
}

func (a *TickAdapter[T]) Send(cmd core.Command) error {
	return a.rt.SendCommand(cmd)
}

func (a *TickAdapter[T]) Stack() []T {
	stack, _ := a.query(a.timeout)
	return stack
}

func (a *TickAdapter[T]) IsInState(state T) bool {
	stack := a.Stack()
	return len(stack) > 0 && stack[len(stack)-1] == state
}

// WaitForStability waits for a tick that starts with nothing scheduled.
func (a *TickAdapter[T]) WaitForStability(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		settled := make(chan bool, 1)
		if err := a.rt.SendCommand(func(w *ecsx.World) error {
			_, pending := ecsx.MustResource[ecsx.State[T]](w).Scheduled()
			settled <- !pending
			return nil
		}); err != nil {
			return err
		}
		select {
		case ok := <-settled:
			if ok {
				return nil
			}
		case <-time.After(time.Until(deadline)):
			return ErrTimeout
		}
	}
	return ErrTimeout
}

func (a *TickAdapter[T]) query(timeout time.Duration) ([]T, error) {
	out := make(chan []T, 1)
	if err := a.rt.SendCommand(func(w *ecsx.World) error {
		out <- ecsx.MustResource[ecsx.State[T]](w).Stack()
		return nil
	}); err != nil {
		return nil, err
	}
	select {
	case stack := <-out:
		return stack, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}
