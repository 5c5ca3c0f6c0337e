package ecsx

import "github.com/comalice/ecsx/internal/primitives"

// shouldRunAdapter turns a predicate verdict into a run decision. Everything
// is suppressed on the driver's final pass; otherwise the criteria asks to be
// checked again since the stack may still be mid-transition.
func shouldRunAdapter[T comparable](s *State[T], verdict bool) ShouldRun {
	if s.endNextLoop {
		return No
	}
	if verdict {
		return YesAndCheckAgain
	}
	return NoAndCheckAgain
}

func stateCriteria[T comparable](state T, cb primitives.StateCallback, pred func(s *State[T]) bool) *RunCriteriaDescriptor {
	return NewRunCriteria(func(w *World) ShouldRun {
		s := MustResource[State[T]](w)
		return shouldRunAdapter(s, pred(s))
	}).
		After(DriverLabel[T]()).
		LabelDiscardIfDuplicate(primitives.StateLabel(state, cb))
}

func count[T comparable](stack []T, v T) int {
	n := 0
	for _, s := range stack {
		if s == v {
			n++
		}
	}
	return n
}

// OnUpdate runs while state is active and the stack has settled.
func OnUpdate[T comparable](state T) *RunCriteriaDescriptor {
	return stateCriteria(state, primitives.CallbackUpdate, func(s *State[T]) bool {
		return s.transition == nil && s.top() == state
	})
}

// OnInactiveUpdate runs while state is paused somewhere below the top and the
// stack has settled.
func OnInactiveUpdate[T comparable](state T) *RunCriteriaDescriptor {
	paused := 0
	return stateCriteria(state, primitives.CallbackInactiveUpdate, func(s *State[T]) bool {
		t := s.transition
		if t == nil {
			return paused > 0
		}
		switch t.Kind {
		case Startup:
			paused = count(s.stack[:len(s.stack)-1], state)
		case Pausing:
			if t.Leaving == state {
				paused++
			}
		case Resuming:
			if t.Entering == state && paused > 0 {
				paused--
			}
		}
		return false
	})
}

// OnInStackUpdate runs while state is anywhere on the stack, active or paused,
// and the stack has settled.
func OnInStackUpdate[T comparable](state T) *RunCriteriaDescriptor {
	frames := 0
	return stateCriteria(state, primitives.CallbackInStackUpdate, func(s *State[T]) bool {
		t := s.transition
		if t == nil {
			return frames > 0
		}
		switch t.Kind {
		case Startup:
			frames = count(s.stack, state)
		case Entering:
			if t.Entering == state {
				frames++
			}
		case ExitingFull, ExitingToResume:
			if t.Leaving == state && frames > 0 {
				frames--
			}
		}
		return false
	})
}

// OnEnter runs once when state becomes active through Set, Replace or Push,
// and at startup when state is the initial top.
func OnEnter[T comparable](state T) *RunCriteriaDescriptor {
	return stateCriteria(state, primitives.CallbackEnter, func(s *State[T]) bool {
		t := s.transition
		if t == nil {
			return false
		}
		switch t.Kind {
		case Entering:
			return t.Entering == state
		case Startup:
			return s.top() == state
		}
		return false
	})
}

// OnExit runs once when state is left through Set, Replace or Pop.
func OnExit[T comparable](state T) *RunCriteriaDescriptor {
	return stateCriteria(state, primitives.CallbackExit, func(s *State[T]) bool {
		t := s.transition
		return t != nil && (t.Kind == ExitingToResume || t.Kind == ExitingFull) && t.Leaving == state
	})
}

// OnPause runs once when a Push pauses state.
func OnPause[T comparable](state T) *RunCriteriaDescriptor {
	return stateCriteria(state, primitives.CallbackPause, func(s *State[T]) bool {
		t := s.transition
		return t != nil && t.Kind == Pausing && t.Leaving == state
	})
}

// OnResume runs once when a Pop uncovers state.
func OnResume[T comparable](state T) *RunCriteriaDescriptor {
	return stateCriteria(state, primitives.CallbackResume, func(s *State[T]) bool {
		t := s.transition
		return t != nil && t.Kind == Resuming && t.Entering == state
	})
}

// OnUpdateSet is a system set guarded by OnUpdate(state).
func OnUpdateSet[T comparable](state T) *SystemSet {
	return NewSystemSet().WithRunCriteria(OnUpdate(state))
}

// OnInactiveUpdateSet is a system set guarded by OnInactiveUpdate(state).
func OnInactiveUpdateSet[T comparable](state T) *SystemSet {
	return NewSystemSet().WithRunCriteria(OnInactiveUpdate(state))
}

// OnInStackUpdateSet is a system set guarded by OnInStackUpdate(state).
func OnInStackUpdateSet[T comparable](state T) *SystemSet {
	return NewSystemSet().WithRunCriteria(OnInStackUpdate(state))
}

// OnEnterSet is a system set guarded by OnEnter(state).
func OnEnterSet[T comparable](state T) *SystemSet {
	return NewSystemSet().WithRunCriteria(OnEnter(state))
}

// OnExitSet is a system set guarded by OnExit(state).
func OnExitSet[T comparable](state T) *SystemSet {
	return NewSystemSet().WithRunCriteria(OnExit(state))
}

// OnPauseSet is a system set guarded by OnPause(state).
func OnPauseSet[T comparable](state T) *SystemSet {
	return NewSystemSet().WithRunCriteria(OnPause(state))
}

// OnResumeSet is a system set guarded by OnResume(state).
func OnResumeSet[T comparable](state T) *SystemSet {
	return NewSystemSet().WithRunCriteria(OnResume(state))
}
