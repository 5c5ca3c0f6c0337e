package ecsx

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrAlreadyInState     = errors.New("attempted to change the state to the current state")
	ErrStateAlreadyQueued = errors.New("attempted to queue a state change, but there was already a state queued")
	ErrStackEmpty         = errors.New("attempted to queue a pop, but there is nothing to pop")
)

// TransitionKind names the phase a state stack is in.
type TransitionKind uint8

const (
	PreStartup TransitionKind = iota
	Startup
	ExitingToResume
	ExitingFull
	Entering
	Resuming
	Pausing
)

func (k TransitionKind) String() string {
	switch k {
	case PreStartup:
		return "PreStartup"
	case Startup:
		return "Startup"
	case ExitingToResume:
		return "ExitingToResume"
	case ExitingFull:
		return "ExitingFull"
	case Entering:
		return "Entering"
	case Resuming:
		return "Resuming"
	case Pausing:
		return "Pausing"
	default:
		return "Unknown"
	}
}

// Transition is one phase of a state change. Leaving is the state being
// vacated and Entering the state being activated or resumed; both are zero
// for PreStartup and Startup.
type Transition[T comparable] struct {
	Kind     TransitionKind
	Leaving  T
	Entering T
}

func (t Transition[T]) String() string {
	if t.Kind == PreStartup || t.Kind == Startup {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s(%v,%v)", t.Kind, t.Leaving, t.Entering)
}

// OperationKind names a requested stack mutation.
type OperationKind uint8

const (
	OpSet OperationKind = iota
	OpReplace
	OpPop
	OpPush
)

func (k OperationKind) String() string {
	switch k {
	case OpSet:
		return "Set"
	case OpReplace:
		return "Replace"
	case OpPop:
		return "Pop"
	case OpPush:
		return "Push"
	default:
		return "Unknown"
	}
}

// Operation is a staged request waiting for the driver.
type Operation[T comparable] struct {
	Kind  OperationKind
	State T
}

// Step is handed to observers after every driver step that touched the stack
// or the transition.
type Step[T comparable] struct {
	// Transition is the phase now current; nil once the stack has settled.
	Transition *Transition[T]
	Stack      []T
}

// State is a stack based state machine with four operations:
//   - Push pushes a new state, pausing the previous one
//   - Pop removes the current state and resumes the one below it
//   - Set replaces the active state
//   - Replace unwinds the whole stack down to a single new state
//
// Requests are only staged here; the Driver walks them through their phases.
// State is meant to live as a World resource for the application's lifetime.
type State[T comparable] struct {
	stack       []T
	transition  *Transition[T]
	scheduled   *Operation[T]
	endNextLoop bool
	observers   []func(Step[T])
}

// NewState creates a stack holding initial, ready to start.
func NewState[T comparable](initial T) State[T] {
	return State[T]{
		stack:      []T{initial},
		transition: &Transition[T]{Kind: PreStartup},
	}
}

// RestoreState rebuilds a stack from a saved snapshot, bottom first. The
// stack restarts at PreStartup so enter criteria fire for the restored top.
func RestoreState[T comparable](stack []T) (State[T], error) {
	if len(stack) == 0 {
		return State[T]{}, ErrStackEmpty
	}
	return State[T]{
		stack:      slices.Clone(stack),
		transition: &Transition[T]{Kind: PreStartup},
	}, nil
}

func (s *State[T]) top() T {
	return s.stack[len(s.stack)-1]
}

func (s *State[T]) stage(op Operation[T], overwrite bool) error {
	if op.Kind == OpPop {
		if len(s.stack) == 1 {
			return ErrStackEmpty
		}
	} else if s.top() == op.State {
		return ErrAlreadyInState
	}
	if !overwrite && s.scheduled != nil {
		return ErrStateAlreadyQueued
	}
	s.scheduled = &op
	return nil
}

// Set schedules replacing the active state with state. Fails if an operation
// is already scheduled or state is the current state.
func (s *State[T]) Set(state T) error {
	return s.stage(Operation[T]{Kind: OpSet, State: state}, false)
}

// OverwriteSet is Set, but replaces an already scheduled operation.
func (s *State[T]) OverwriteSet(state T) error {
	return s.stage(Operation[T]{Kind: OpSet, State: state}, true)
}

// Replace schedules replacing the full stack with state.
func (s *State[T]) Replace(state T) error {
	return s.stage(Operation[T]{Kind: OpReplace, State: state}, false)
}

// OverwriteReplace is Replace, but replaces an already scheduled operation.
func (s *State[T]) OverwriteReplace(state T) error {
	return s.stage(Operation[T]{Kind: OpReplace, State: state}, true)
}

// Push schedules pushing state, pausing the current state.
func (s *State[T]) Push(state T) error {
	return s.stage(Operation[T]{Kind: OpPush, State: state}, false)
}

// OverwritePush is Push, but replaces an already scheduled operation.
func (s *State[T]) OverwritePush(state T) error {
	return s.stage(Operation[T]{Kind: OpPush, State: state}, true)
}

// Pop schedules removing the current state and resuming the one below.
func (s *State[T]) Pop() error {
	return s.stage(Operation[T]{Kind: OpPop}, false)
}

// OverwritePop is Pop, but replaces an already scheduled operation.
func (s *State[T]) OverwritePop() error {
	return s.stage(Operation[T]{Kind: OpPop}, true)
}

// Current returns the active state, the top of the stack.
func (s *State[T]) Current() T {
	return s.top()
}

// Inactives returns a copy of the paused states below the top, oldest first.
func (s *State[T]) Inactives() []T {
	return slices.Clone(s.stack[:len(s.stack)-1])
}

// Stack returns a copy of the whole stack, bottom first.
func (s *State[T]) Stack() []T {
	return slices.Clone(s.stack)
}

// Transition returns the phase the stack is in, or false once settled.
func (s *State[T]) Transition() (Transition[T], bool) {
	if s.transition == nil {
		return Transition[T]{}, false
	}
	return *s.transition, true
}

// Scheduled returns the operation waiting for the driver, if any.
func (s *State[T]) Scheduled() (Operation[T], bool) {
	if s.scheduled == nil {
		return Operation[T]{}, false
	}
	return *s.scheduled, true
}

// Observe registers fn to be called after each driver step that advanced the
// stack. Observers run synchronously inside the driver.
func (s *State[T]) Observe(fn func(Step[T])) {
	s.observers = append(s.observers, fn)
}

func (s *State[T]) notify() {
	if len(s.observers) == 0 {
		return
	}
	step := Step[T]{Stack: slices.Clone(s.stack)}
	if s.transition != nil {
		t := *s.transition
		step.Transition = &t
	}
	for _, fn := range s.observers {
		fn(step)
	}
}
