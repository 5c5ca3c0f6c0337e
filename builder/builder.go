// Package builder offers a fluent way to register the systems of one state
// type onto a Stage, grouping them by state instead of by callback.
package builder

import (
	"fmt"

	"github.com/comalice/ecsx"
)

// Callback selects which phase of a state a system reacts to.
type Callback int

const (
	Enter Callback = iota
	Exit
	Pause
	Resume
	Update
	InactiveUpdate
	InStackUpdate
)

func (c Callback) String() string {
	switch c {
	case Enter:
		return "enter"
	case Exit:
		return "exit"
	case Pause:
		return "pause"
	case Resume:
		return "resume"
	case Update:
		return "update"
	case InactiveUpdate:
		return "inactive_update"
	case InStackUpdate:
		return "in_stack_update"
	default:
		return fmt.Sprintf("callback(%d)", int(c))
	}
}

// StackBuilder collects systems for the states of T and installs them on a
// stage together with the driver of T.
type StackBuilder[T comparable] struct {
	stage  *ecsx.Stage
	order  []T
	states map[T]*StateBuilder[T]
	built  bool
}

// StateBuilder provides fluent methods for the systems of one state.
type StateBuilder[T comparable] struct {
	b       *StackBuilder[T]
	state   T
	systems map[Callback][]ecsx.SystemDescriptor
}

// For creates a builder for state type T targeting stage.
func For[T comparable](stage *ecsx.Stage) *StackBuilder[T] {
	return &StackBuilder[T]{
		stage:  stage,
		states: make(map[T]*StateBuilder[T]),
	}
}

// State creates or retrieves the builder for state.
func (b *StackBuilder[T]) State(state T) *StateBuilder[T] {
	if sb, ok := b.states[state]; ok {
		return sb
	}
	sb := &StateBuilder[T]{
		b:       b,
		state:   state,
		systems: make(map[Callback][]ecsx.SystemDescriptor),
	}
	b.states[state] = sb
	b.order = append(b.order, state)
	return sb
}

// States returns the states with registered systems, in first-use order.
func (b *StackBuilder[T]) States() []T {
	return append([]T(nil), b.order...)
}

// Build adds the driver and every registered system set to the stage and
// validates the resulting ordering. Only the first call registers anything.
func (b *StackBuilder[T]) Build() error {
	if b.built {
		return nil
	}
	b.built = true
	b.stage.AddSystemSet(ecsx.DriverSet[T]())
	for _, state := range b.order {
		sb := b.states[state]
		for cb := Enter; cb <= InStackUpdate; cb++ {
			systems := sb.systems[cb]
			if len(systems) == 0 {
				continue
			}
			set := systemSet(cb, state)
			for _, sys := range systems {
				set.WithNamedSystem(sys.Name, sys.Run)
			}
			b.stage.AddSystemSet(set)
		}
	}
	if err := b.stage.Initialize(); err != nil {
		return fmt.Errorf("build %T stack: %w", *new(T), err)
	}
	return nil
}

// Install inserts a fresh state stack starting at initial into w.
func (b *StackBuilder[T]) Install(w *ecsx.World, initial T) {
	ecsx.InsertResource(w, ecsx.NewState(initial))
}

func systemSet[T comparable](cb Callback, state T) *ecsx.SystemSet {
	switch cb {
	case Enter:
		return ecsx.OnEnterSet(state)
	case Exit:
		return ecsx.OnExitSet(state)
	case Pause:
		return ecsx.OnPauseSet(state)
	case Resume:
		return ecsx.OnResumeSet(state)
	case Update:
		return ecsx.OnUpdateSet(state)
	case InactiveUpdate:
		return ecsx.OnInactiveUpdateSet(state)
	default:
		return ecsx.OnInStackUpdateSet(state)
	}
}

func (sb *StateBuilder[T]) add(cb Callback, systems []ecsx.System) *StateBuilder[T] {
	for i, sys := range systems {
		name := fmt.Sprintf("%v.%s", sb.state, cb)
		if len(systems) > 1 {
			name = fmt.Sprintf("%s#%d", name, i)
		}
		sb.systems[cb] = append(sb.systems[cb], ecsx.NamedSystem(name, sys))
	}
	return sb
}

// On registers systems for an arbitrary callback.
func (sb *StateBuilder[T]) On(cb Callback, systems ...ecsx.System) *StateBuilder[T] {
	return sb.add(cb, systems)
}

// Enter registers systems run once when the state becomes active.
func (sb *StateBuilder[T]) Enter(systems ...ecsx.System) *StateBuilder[T] {
	return sb.add(Enter, systems)
}

// Exit registers systems run once when the state is left.
func (sb *StateBuilder[T]) Exit(systems ...ecsx.System) *StateBuilder[T] {
	return sb.add(Exit, systems)
}

func (sb *StateBuilder[T]) Pause(systems ...ecsx.System) *StateBuilder[T] {
	return sb.add(Pause, systems)
}

func (sb *StateBuilder[T]) Resume(systems ...ecsx.System) *StateBuilder[T] {
	return sb.add(Resume, systems)
}

// Update registers systems run every frame while the state is on top.
func (sb *StateBuilder[T]) Update(systems ...ecsx.System) *StateBuilder[T] {
	return sb.add(Update, systems)
}

// InactiveUpdate registers systems run every frame while the state is paused.
func (sb *StateBuilder[T]) InactiveUpdate(systems ...ecsx.System) *StateBuilder[T] {
	return sb.add(InactiveUpdate, systems)
}

// InStackUpdate registers systems run every frame while the state is anywhere
// on the stack.
func (sb *StateBuilder[T]) InStackUpdate(systems ...ecsx.System) *StateBuilder[T] {
	return sb.add(InStackUpdate, systems)
}

// State switches to another state of the same builder.
func (sb *StateBuilder[T]) State(state T) *StateBuilder[T] {
	return sb.b.State(state)
}

// Build is a shortcut for the owning StackBuilder's Build.
func (sb *StateBuilder[T]) Build() error {
	return sb.b.Build()
}
