package core

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

// StateSnapshot is the serializable form of one settled state stack.
type StateSnapshot struct {
	ID        string    `json:"id" yaml:"id"`
	AppID     string    `json:"appID" yaml:"appID"`
	StateType string    `json:"stateType" yaml:"stateType"`
	Stack     any       `json:"stack" yaml:"stack"`
	Frame     uint64    `json:"frame" yaml:"frame"`
	Version   string    `json:"version" yaml:"version"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Key identifies the stack a snapshot belongs to.
func (s StateSnapshot) Key() string {
	return SnapshotKey(s.AppID, s.StateType)
}

// SnapshotKey builds the key of the stack of stateType inside app appID.
func SnapshotKey(appID, stateType string) string {
	return appID + "/" + stateType
}

// TransitionRecord describes one phase of a tracked stack, as seen by the
// driver. A settled stack is reported with Kind "None".
type TransitionRecord struct {
	ID        string    `json:"id" yaml:"id"`
	AppID     string    `json:"appID" yaml:"appID"`
	StateType string    `json:"stateType" yaml:"stateType"`
	Kind      string    `json:"kind" yaml:"kind"`
	Leaving   string    `json:"leaving,omitempty" yaml:"leaving,omitempty"`
	Entering  string    `json:"entering,omitempty" yaml:"entering,omitempty"`
	Stack     []string  `json:"stack" yaml:"stack"`
	Frame     uint64    `json:"frame" yaml:"frame"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

func stateTypeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

// decodeStack recovers a []T from a snapshot. In-process snapshots carry the
// slice itself; decoded ones carry generic JSON or YAML values.
func decodeStack[T comparable](v any) ([]T, error) {
	if stack, ok := v.([]T); ok {
		return stack, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode stack: %w", err)
	}
	var stack []T
	if err := json.Unmarshal(data, &stack); err != nil {
		return nil, fmt.Errorf("decode stack as []%s: %w", stateTypeName[T](), err)
	}
	return stack, nil
}
