package primitives

import "fmt"

// StateCallback identifies which phase of a state stack a run criteria reacts to.
type StateCallback uint8

const (
	// CallbackNone marks labels that are not bound to a state.
	CallbackNone StateCallback = iota
	CallbackUpdate
	CallbackInactiveUpdate
	CallbackInStackUpdate
	CallbackEnter
	CallbackExit
	CallbackPause
	CallbackResume
	// CallbackDriver labels the transition driver of one state type.
	CallbackDriver
)

func (c StateCallback) String() string {
	switch c {
	case CallbackNone:
		return "none"
	case CallbackUpdate:
		return "update"
	case CallbackInactiveUpdate:
		return "inactive_update"
	case CallbackInStackUpdate:
		return "in_stack_update"
	case CallbackEnter:
		return "enter"
	case CallbackExit:
		return "exit"
	case CallbackPause:
		return "pause"
	case CallbackResume:
		return "resume"
	case CallbackDriver:
		return "driver"
	default:
		return "unknown"
	}
}

// Label names a scheduler node. It is a closed variant: either a plain name, or
// a (state value, callback) pair. Labels compare structurally so node
// de-duplication is a plain map lookup.
//
// The state value is stored as an interface; it must hold a comparable dynamic
// type. Two state types with the same underlying value never collide because
// interface equality includes the dynamic type.
type Label struct {
	name     string
	state    any
	callback StateCallback
}

// NamedLabel returns a label identified by name only.
func NamedLabel(name string) Label {
	return Label{name: name}
}

// StateLabel returns the label for a state value paired with a callback kind.
func StateLabel(state any, callback StateCallback) Label {
	return Label{state: state, callback: callback}
}

// IsZero reports whether l is the zero label (no label).
func (l Label) IsZero() bool {
	return l == Label{}
}

// Callback returns the callback kind, CallbackNone for named labels.
func (l Label) Callback() StateCallback {
	return l.callback
}

// State returns the bound state value, nil for named labels.
func (l Label) State() any {
	return l.state
}

func (l Label) String() string {
	if l.callback == CallbackNone {
		return l.name
	}
	if l.callback == CallbackDriver {
		return fmt.Sprintf("driver(%T)", l.state)
	}
	return fmt.Sprintf("%v.%s", l.state, l.callback)
}
