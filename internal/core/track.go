package core

import (
	"context"
	"fmt"
	"time"

	"github.com/comalice/ecsx"
	"github.com/comalice/ecsx/internal/primitives"
	"github.com/google/uuid"
)

// TrackState inserts a State[T] starting at initial, adds its driver to the
// update stage and reports its transitions and settled stacks to the App's
// sinks. Each state type can be tracked once.
func TrackState[T comparable](a *App, initial T) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ecsx.ContainsResource[ecsx.State[T]](a.world) {
		return fmt.Errorf("%s: %w", stateTypeName[T](), ErrAlreadyTracked)
	}
	ecsx.InsertResource(a.world, ecsx.NewState(initial))
	observe[T](a, a.world)
	a.update.AddSystemSet(ecsx.DriverSet[T]())
	return nil
}

// StateCommand wraps an operation on the tracked State[T] as a Command, so
// producers on other goroutines can request transitions through Send.
func StateCommand[T comparable](fn func(s *ecsx.State[T]) error) Command {
	return func(w *ecsx.World) error {
		s, ok := ecsx.Resource[ecsx.State[T]](w)
		if !ok {
			return fmt.Errorf("%s: %w", stateTypeName[T](), ErrNotTracked)
		}
		return fn(s)
	}
}

// RestoreState replaces the tracked State[T] with the stack in snapshot. The
// restored stack starts over, so enter systems of its top run on the next
// Update. Do not call it from a Command; send RestoreCommand instead.
func RestoreState[T comparable](a *App, snapshot StateSnapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return restore[T](a, a.world, snapshot)
}

// RestoreCommand is RestoreState applied at the start of the next Update.
func RestoreCommand[T comparable](a *App, snapshot StateSnapshot) Command {
	return func(w *ecsx.World) error {
		return restore[T](a, w, snapshot)
	}
}

// LoadState restores the tracked State[T] from the App's persister.
func LoadState[T comparable](ctx context.Context, a *App) error {
	if a.persister == nil {
		return fmt.Errorf("load %s: no persister configured", stateTypeName[T]())
	}
	snapshot, err := a.persister.Load(ctx, SnapshotKey(a.id, stateTypeName[T]()))
	if err != nil {
		return fmt.Errorf("load %s: %w", stateTypeName[T](), err)
	}
	return RestoreState[T](a, snapshot)
}

// Snapshot captures the current stack of the tracked State[T].
func Snapshot[T comparable](a *App) (StateSnapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := ecsx.Resource[ecsx.State[T]](a.world)
	if !ok {
		return StateSnapshot{}, fmt.Errorf("%s: %w", stateTypeName[T](), ErrNotTracked)
	}
	return newSnapshot(a, s.Stack()), nil
}

func restore[T comparable](a *App, w *ecsx.World, snapshot StateSnapshot) error {
	typ := stateTypeName[T]()
	if !ecsx.ContainsResource[ecsx.State[T]](w) {
		return fmt.Errorf("%s: %w", typ, ErrNotTracked)
	}
	if snapshot.StateType != typ {
		return fmt.Errorf("restore %s from %s: %w", typ, snapshot.StateType, ErrStateMismatch)
	}
	stack, err := decodeStack[T](snapshot.Stack)
	if err != nil {
		return fmt.Errorf("restore %s: %w", typ, err)
	}
	s, err := ecsx.RestoreState(stack)
	if err != nil {
		return fmt.Errorf("restore %s: %w", typ, err)
	}
	ecsx.InsertResource(w, s)
	observe[T](a, w)
	a.logger.Printf("app %s: restored %s to %v (snapshot %s)", a.id, typ, stack, snapshot.ID)
	return nil
}

// observe hooks the App's sinks into the State[T] stored in w.
func observe[T comparable](a *App, w *ecsx.World) {
	typ := stateTypeName[T]()
	ecsx.MustResource[ecsx.State[T]](w).Observe(func(step ecsx.Step[T]) {
		rec := TransitionRecord{
			ID:        newID(),
			AppID:     a.id,
			StateType: typ,
			Kind:      "None",
			Stack:     stringify(step.Stack),
			Frame:     a.Frame(),
			Timestamp: time.Now(),
		}
		if t := step.Transition; t != nil {
			rec.Kind = t.Kind.String()
			if t.Kind != ecsx.PreStartup && t.Kind != ecsx.Startup {
				rec.Leaving = fmt.Sprint(t.Leaving)
				rec.Entering = fmt.Sprint(t.Entering)
			}
		}
		a.records = append(a.records, rec)
		if step.Transition == nil {
			a.snapshots = append(a.snapshots, newSnapshot(a, step.Stack))
		}
	})
}

func newSnapshot[T comparable](a *App, stack []T) StateSnapshot {
	typ := stateTypeName[T]()
	return StateSnapshot{
		ID:        newID(),
		AppID:     a.id,
		StateType: typ,
		Stack:     stack,
		Frame:     a.Frame(),
		Version: primitives.ComputeVersion(struct {
			StateType string `json:"stateType"`
			Stack     []T    `json:"stack"`
		}{typ, stack}),
		Timestamp: time.Now(),
	}
}

// newID returns a time-ordered UUID so records sort by creation.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func stringify[T any](stack []T) []string {
	out := make([]string, len(stack))
	for i, s := range stack {
		out[i] = fmt.Sprint(s)
	}
	return out
}
