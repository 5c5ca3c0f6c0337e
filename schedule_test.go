package ecsx_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	. "github.com/comalice/ecsx"
)

func constant(r ShouldRun) func(*World) ShouldRun {
	return func(*World) ShouldRun { return r }
}

// sequence answers rs in order, then No forever.
func sequence(rs ...ShouldRun) func(*World) ShouldRun {
	return func(*World) ShouldRun {
		if len(rs) == 0 {
			return No
		}
		r := rs[0]
		rs = rs[1:]
		return r
	}
}

func guarded(fn func(*World) ShouldRun, sys System) *SystemSet {
	return NewSystemSet().WithRunCriteria(NewRunCriteria(fn)).WithSystem(sys)
}

func TestStageShouldRunSemantics(t *testing.T) {
	counts := map[string]int{}
	bump := func(name string) System {
		return func(*World) { counts[name]++ }
	}

	stage := NewStage("update").
		AddSystem(bump("plain")).
		AddSystemSet(guarded(constant(Yes), bump("yes"))).
		AddSystemSet(guarded(constant(No), bump("no"))).
		AddSystemSet(guarded(sequence(YesAndCheckAgain, YesAndCheckAgain, YesAndCheckAgain), bump("again"))).
		AddSystemSet(guarded(sequence(NoAndCheckAgain, NoAndCheckAgain, Yes), bump("late")))

	if err := stage.Run(context.Background(), NewWorld()); err != nil {
		t.Fatal(err)
	}

	want := map[string]int{"plain": 1, "yes": 1, "no": 0, "again": 3, "late": 1}
	for name, n := range want {
		if counts[name] != n {
			t.Errorf("%s ran %d times, want %d", name, counts[name], n)
		}
	}
}

func TestStageSettleLimit(t *testing.T) {
	runs := 0
	stage := NewStage("update", WithMaxPasses(4)).
		AddSystemSet(guarded(constant(YesAndCheckAgain), func(*World) { runs++ }))

	expectPanic(t, "did not settle", func() {
		_ = stage.Run(context.Background(), NewWorld())
	})
	if runs != 4 {
		t.Errorf("expected 4 complete passes before giving up, got %d", runs)
	}
}

func TestStageSettleLimitAllowsSettlingOnLastPass(t *testing.T) {
	runs := 0
	stage := NewStage("update", WithMaxPasses(3)).
		AddSystemSet(guarded(sequence(YesAndCheckAgain, YesAndCheckAgain, Yes), func(*World) { runs++ }))

	if err := stage.Run(context.Background(), NewWorld()); err != nil {
		t.Fatal(err)
	}
	if runs != 3 {
		t.Errorf("expected 3 passes, got %d", runs)
	}
}

func TestStageDuplicateLabel(t *testing.T) {
	l := NewLabel("input")
	stage := NewStage("update").
		AddSystemSet(NewSystemSet().WithRunCriteria(NewRunCriteria(constant(Yes)).WithLabel(l))).
		AddSystemSet(NewSystemSet().WithRunCriteria(NewRunCriteria(constant(Yes)).WithLabel(l)))

	if err := stage.Initialize(); !errors.Is(err, ErrDuplicateLabel) {
		t.Errorf("expected ErrDuplicateLabel, got %v", err)
	}
	if err := stage.Run(context.Background(), NewWorld()); !errors.Is(err, ErrDuplicateLabel) {
		t.Errorf("Run should report the registration error, got %v", err)
	}
}

func TestStageOrdering(t *testing.T) {
	var order []string
	criteria := func(name string) *RunCriteriaDescriptor {
		return NewRunCriteria(func(*World) ShouldRun {
			order = append(order, name)
			return No
		}).WithLabel(NewLabel(name))
	}

	stage := NewStage("update").
		AddSystemSet(NewSystemSet().WithRunCriteria(criteria("render").After(NewLabel("physics")))).
		AddSystemSet(NewSystemSet().WithRunCriteria(criteria("physics"))).
		AddSystemSet(NewSystemSet().WithRunCriteria(criteria("input").Before(NewLabel("physics")))).
		AddSystemSet(NewSystemSet().WithRunCriteria(criteria("audio")))

	if err := stage.Run(context.Background(), NewWorld()); err != nil {
		t.Fatal(err)
	}
	if want := []string{"input", "physics", "render", "audio"}; !slices.Equal(order, want) {
		t.Errorf("evaluation order %v, want %v", order, want)
	}
}

func TestStageDependencyErrors(t *testing.T) {
	a, b := NewLabel("a"), NewLabel("b")

	cyclic := NewStage("cyclic").
		AddSystemSet(NewSystemSet().WithRunCriteria(NewRunCriteria(constant(No)).WithLabel(a).After(b))).
		AddSystemSet(NewSystemSet().WithRunCriteria(NewRunCriteria(constant(No)).WithLabel(b).After(a)))
	if err := cyclic.Initialize(); !errors.Is(err, ErrDependencyCycle) {
		t.Errorf("expected ErrDependencyCycle, got %v", err)
	}

	dangling := NewStage("dangling").
		AddSystemSet(NewSystemSet().WithRunCriteria(NewRunCriteria(constant(No)).Before(a)))
	if err := dangling.Initialize(); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("expected ErrUnknownLabel, got %v", err)
	}
}

func TestStageSkipsRunOnDoneContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran, evaluated := false, false
	stage := NewStage("update").
		AddSystem(func(*World) { ran = true }).
		AddSystemSet(guarded(func(*World) ShouldRun { evaluated = true; return No }, func(*World) {}))
	if err := stage.Run(ctx, NewWorld()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if ran || evaluated {
		t.Error("stage did work on a done context")
	}
}

func TestStageFinishesPassesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	passes := 0
	stage := NewStage("update").
		AddSystemSet(guarded(sequence(YesAndCheckAgain, YesAndCheckAgain, Yes), func(*World) {
			passes++
			cancel()
		}))
	if err := stage.Run(ctx, NewWorld()); err != nil {
		t.Fatalf("Run returned %v after a mid-run cancel", err)
	}
	if passes != 3 {
		t.Errorf("expected all 3 passes, got %d", passes)
	}
}

type recordingRunner struct {
	names []string
}

func (r *recordingRunner) RunSystem(_ context.Context, w *World, sys SystemDescriptor) {
	r.names = append(r.names, sys.Name)
	sys.Run(w)
}

func TestStageSystemRunnerAndNames(t *testing.T) {
	runner := &recordingRunner{}
	stage := NewStage("update", WithSystemRunner(runner)).
		AddSystemSet(NewSystemSet().WithNamedSystem("spawn", func(*World) {})).
		AddSystem(func(*World) {})

	if err := stage.Run(context.Background(), NewWorld()); err != nil {
		t.Fatal(err)
	}
	if len(runner.names) != 2 || runner.names[0] != "spawn" {
		t.Fatalf("unexpected runs %v", runner.names)
	}
	if !strings.HasPrefix(runner.names[1], "ecsx_test.TestStageSystemRunnerAndNames") {
		t.Errorf("derived name %q does not name the function", runner.names[1])
	}

	g := stage.Graph()
	if g.Name != "update" || len(g.Sets) != 2 || g.Sets[0].Systems[0] != "spawn" {
		t.Errorf("unexpected graph %+v", g)
	}
}

func TestScheduleRunsStagesInOrder(t *testing.T) {
	var order []string
	sc := NewSchedule()
	for _, name := range []string{"first", "update", "last"} {
		st, err := sc.AddStage(name)
		if err != nil {
			t.Fatal(err)
		}
		st.AddSystem(func(*World) { order = append(order, name) })
	}
	if _, err := sc.AddStage("update"); !errors.Is(err, ErrDuplicateStage) {
		t.Errorf("expected ErrDuplicateStage, got %v", err)
	}
	if _, ok := sc.Stage("missing"); ok {
		t.Error("missing stage found")
	}

	if err := sc.Run(context.Background(), NewWorld()); err != nil {
		t.Fatal(err)
	}
	if want := []string{"first", "update", "last"}; !slices.Equal(order, want) {
		t.Errorf("got %v, want %v", order, want)
	}
	if len(sc.Graph()) != 3 {
		t.Errorf("expected 3 stage graphs, got %d", len(sc.Graph()))
	}
}
