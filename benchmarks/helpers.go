// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"context"
	"fmt"
	"time"

	"github.com/comalice/ecsx"
	"github.com/comalice/ecsx/internal/core"
	"gopkg.in/yaml.v3"
)

// Level is the state type used by the benchmarks; states are plain ints so
// stacks of any depth can be generated.
type Level int

// NewLevelStage returns a stage driving State[Level] with an enter, exit and
// update system registered for each of n states.
func NewLevelStage(n int) (*ecsx.Stage, *int) {
	if n < 1 {
		n = 1
	}
	calls := new(int)
	bump := func(*ecsx.World) { *calls++ }
	stage := ecsx.NewStage("bench").AddSystemSet(ecsx.DriverSet[Level]())
	for i := 0; i < n; i++ {
		s := Level(i)
		stage.AddSystemSet(ecsx.OnEnterSet(s).WithSystem(bump))
		stage.AddSystemSet(ecsx.OnExitSet(s).WithSystem(bump))
		stage.AddSystemSet(ecsx.OnUpdateSet(s).WithSystem(bump))
	}
	if err := stage.Initialize(); err != nil {
		panic(err)
	}
	return stage, calls
}

// NewLevelWorld returns a world holding a State[Level] of the given depth,
// already started.
func NewLevelWorld(stage *ecsx.Stage, depth int) *ecsx.World {
	if depth < 1 {
		depth = 1
	}
	stack := make([]Level, depth)
	for i := range stack {
		stack[i] = Level(i)
	}
	st, err := ecsx.RestoreState(stack)
	if err != nil {
		panic(err)
	}
	w := ecsx.NewWorld()
	ecsx.InsertResource(w, st)
	if err := stage.Run(context.Background(), w); err != nil {
		panic(err)
	}
	return w
}

// GenSnapshotYAML renders a snapshot of a stack with depth levels.
func GenSnapshotYAML(depth int) []byte {
	stack := make([]Level, depth)
	for i := range stack {
		stack[i] = Level(i)
	}
	snap := core.StateSnapshot{
		ID:        fmt.Sprintf("bench-%d", depth),
		AppID:     "bench",
		StateType: "benchmarks.Level",
		Stack:     stack,
		Version:   fmt.Sprintf("v%d", depth),
		Timestamp: time.Unix(0, 0).UTC(),
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		panic(err)
	}
	return data
}
