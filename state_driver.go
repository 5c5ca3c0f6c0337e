package ecsx

import "github.com/comalice/ecsx/internal/primitives"

// driverKey tags the driver label of one state type.
type driverKey[T comparable] struct{}

// DriverLabel is the scheduler label of the driver for state type T. Every
// state run criteria for T is ordered after it.
func DriverLabel[T comparable]() Label {
	return primitives.StateLabel(driverKey[T]{}, primitives.CallbackDriver)
}

// Driver advances a State one phase per Step. The outer scheduler keeps
// calling Step while it answers YesAndCheckAgain, which gives every run
// criteria ordered after the driver one look at each phase.
type Driver[T comparable] struct {
	prepExit bool
}

// Step performs exactly one unit of work on s.
//
// Once nothing is pending the driver grants one more pass, in which listeners
// observe the settled stack, and then answers No for that Stage.Run.
func (d *Driver[T]) Step(s *State[T]) ShouldRun {
	if d.prepExit {
		d.prepExit = false
		if s.scheduled == nil {
			s.endNextLoop = true
			return YesAndCheckAgain
		}
	} else if s.endNextLoop {
		s.endNextLoop = false
		return No
	}

	changed := true
	if op := s.scheduled; op != nil {
		s.scheduled = nil
		d.apply(s, op)
	} else if t := s.transition; t != nil {
		d.advance(s, t)
	} else {
		changed = false
	}

	if changed {
		s.notify()
	}
	if s.transition == nil {
		d.prepExit = true
	}
	return YesAndCheckAgain
}

// apply turns a staged operation into the first phase of its transition.
func (d *Driver[T]) apply(s *State[T], op *Operation[T]) {
	n := len(s.stack)
	switch op.Kind {
	case OpSet:
		s.transition = &Transition[T]{Kind: ExitingFull, Leaving: s.top(), Entering: op.State}
	case OpReplace:
		if n <= 1 {
			s.transition = &Transition[T]{Kind: ExitingFull, Leaving: s.top(), Entering: op.State}
			return
		}
		// Unwind one frame per pass; the replace stays staged until a single
		// frame is left.
		s.scheduled = op
		if t := s.transition; t != nil && t.Kind == ExitingToResume {
			s.stack = s.stack[:n-1]
			s.transition = &Transition[T]{Kind: Resuming, Leaving: t.Leaving, Entering: t.Entering}
			return
		}
		s.transition = &Transition[T]{Kind: ExitingToResume, Leaving: s.stack[n-1], Entering: s.stack[n-2]}
	case OpPush:
		s.transition = &Transition[T]{Kind: Pausing, Leaving: s.top(), Entering: op.State}
	case OpPop:
		if n < 2 {
			return
		}
		s.transition = &Transition[T]{Kind: ExitingToResume, Leaving: s.stack[n-1], Entering: s.stack[n-2]}
	}
}

// advance commits the stack mutation of the current phase and moves to the next.
func (d *Driver[T]) advance(s *State[T], t *Transition[T]) {
	switch t.Kind {
	case ExitingFull:
		s.stack[len(s.stack)-1] = t.Entering
		s.transition = &Transition[T]{Kind: Entering, Leaving: t.Leaving, Entering: t.Entering}
	case Pausing:
		s.stack = append(s.stack, t.Entering)
		s.transition = &Transition[T]{Kind: Entering, Leaving: t.Leaving, Entering: t.Entering}
	case ExitingToResume:
		s.stack = s.stack[:len(s.stack)-1]
		s.transition = &Transition[T]{Kind: Resuming, Leaving: t.Leaving, Entering: t.Entering}
	case PreStartup:
		s.transition = &Transition[T]{Kind: Startup}
	default:
		s.transition = nil
	}
}

// DriverSet returns the system set that drives State[T]. It must be added to
// a stage before any set depending on State[T]; adding it twice keeps the
// first driver.
func DriverSet[T comparable]() *SystemSet {
	d := &Driver[T]{}
	criteria := NewRunCriteria(func(w *World) ShouldRun {
		return d.Step(MustResource[State[T]](w))
	}).LabelDiscardIfDuplicate(DriverLabel[T]())
	return NewSystemSet().WithRunCriteria(criteria)
}
