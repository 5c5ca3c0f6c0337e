package ecsx_test

import (
	"context"
	"slices"
	"testing"

	. "github.com/comalice/ecsx"
)

type screen string

const (
	menu    screen = "menu"
	playing screen = "playing"
	paused  screen = "paused"
)

// screenApp wires every callback of every screen into one stage and records
// the callbacks that ran during each frame.
type screenApp struct {
	world *World
	stage *Stage
	log   []string
}

func newScreenApp(t *testing.T, initial screen) *screenApp {
	t.Helper()
	a := &screenApp{world: NewWorld(), stage: NewStage("update")}
	InsertResource(a.world, NewState(initial))
	a.stage.AddSystemSet(DriverSet[screen]())

	record := func(name string) System {
		return func(*World) { a.log = append(a.log, name) }
	}
	for _, s := range []screen{menu, playing, paused} {
		a.stage.
			AddSystemSet(OnEnterSet(s).WithSystem(record(string(s) + ".enter"))).
			AddSystemSet(OnExitSet(s).WithSystem(record(string(s) + ".exit"))).
			AddSystemSet(OnPauseSet(s).WithSystem(record(string(s) + ".pause"))).
			AddSystemSet(OnResumeSet(s).WithSystem(record(string(s) + ".resume"))).
			AddSystemSet(OnUpdateSet(s).WithSystem(record(string(s) + ".update"))).
			AddSystemSet(OnInactiveUpdateSet(s).WithSystem(record(string(s) + ".inactive"))).
			AddSystemSet(OnInStackUpdateSet(s).WithSystem(record(string(s) + ".in_stack")))
	}
	return a
}

func (a *screenApp) state() *State[screen] {
	return MustResource[State[screen]](a.world)
}

// frame runs the stage once and returns what ran.
func (a *screenApp) frame(t *testing.T) []string {
	t.Helper()
	a.log = nil
	if err := a.stage.Run(context.Background(), a.world); err != nil {
		t.Fatal(err)
	}
	return a.log
}

func expectFrame(t *testing.T, got []string, want ...string) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("frame ran %v, want %v", got, want)
	}
}

func TestCriteriaStartupEntersInitialState(t *testing.T) {
	a := newScreenApp(t, menu)
	expectFrame(t, a.frame(t), "menu.enter", "menu.update", "menu.in_stack")
	expectFrame(t, a.frame(t), "menu.update", "menu.in_stack")
}

func TestCriteriaOneUpdatePerFrame(t *testing.T) {
	a := newScreenApp(t, menu)
	a.frame(t)

	updates := 0
	for i := 0; i < 5; i++ {
		for _, name := range a.frame(t) {
			if name == "menu.update" {
				updates++
			}
		}
	}
	if updates != 5 {
		t.Errorf("expected 5 updates over 5 frames, got %d", updates)
	}
}

func TestCriteriaPushAndPop(t *testing.T) {
	a := newScreenApp(t, playing)
	a.frame(t)

	if err := a.state().Push(paused); err != nil {
		t.Fatal(err)
	}
	expectFrame(t, a.frame(t),
		"playing.pause",
		"paused.enter",
		"playing.inactive", "playing.in_stack",
		"paused.update", "paused.in_stack",
	)
	expectFrame(t, a.frame(t),
		"playing.inactive", "playing.in_stack",
		"paused.update", "paused.in_stack",
	)

	if err := a.state().Pop(); err != nil {
		t.Fatal(err)
	}
	expectFrame(t, a.frame(t),
		"paused.exit",
		"playing.resume",
		"playing.update", "playing.in_stack",
	)
}

func TestCriteriaSet(t *testing.T) {
	a := newScreenApp(t, menu)
	a.frame(t)

	if err := a.state().Set(playing); err != nil {
		t.Fatal(err)
	}
	expectFrame(t, a.frame(t),
		"menu.exit",
		"playing.enter",
		"playing.update", "playing.in_stack",
	)
}

func TestCriteriaReplaceUnwindsEveryFrame(t *testing.T) {
	a := newScreenApp(t, menu)
	a.frame(t)
	_ = a.state().Push(playing)
	a.frame(t)
	_ = a.state().Push(paused)
	a.frame(t)

	if err := a.state().Replace(menu); err != nil {
		t.Fatal(err)
	}
	expectFrame(t, a.frame(t),
		"paused.exit",
		"playing.resume",
		"playing.exit",
		"menu.resume",
		"menu.exit",
		"menu.enter",
		"menu.update", "menu.in_stack",
	)
	if got := a.state().Stack(); !slices.Equal(got, []screen{menu}) {
		t.Errorf("expected [menu], got %v", got)
	}
}

func TestCriteriaChangeRequestedBySystem(t *testing.T) {
	w := NewWorld()
	InsertResource(w, NewState(menu))
	var log []string

	stage := NewStage("update")
	stage.AddSystemSet(DriverSet[screen]())
	stage.AddSystemSet(OnUpdateSet(menu).WithSystem(func(w *World) {
		log = append(log, "menu.update")
		_ = MustResource[State[screen]](w).Set(playing)
	}))
	stage.AddSystemSet(OnEnterSet(playing).WithSystem(func(*World) {
		log = append(log, "playing.enter")
	}))
	stage.AddSystemSet(OnUpdateSet(playing).WithSystem(func(*World) {
		log = append(log, "playing.update")
	}))

	if err := stage.Run(context.Background(), w); err != nil {
		t.Fatal(err)
	}
	expectFrame(t, log, "menu.update", "playing.enter", "playing.update")
}

func TestCriteriaCancelAfterStagingStillDeliversPhases(t *testing.T) {
	w := NewWorld()
	InsertResource(w, NewState(menu))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var log []string
	frame := 0
	stage := NewStage("update")
	stage.AddSystemSet(DriverSet[screen]())
	stage.AddSystemSet(OnUpdateSet(menu).WithSystem(func(w *World) {
		log = append(log, "menu.update")
		if frame == 2 {
			_ = MustResource[State[screen]](w).Push(playing)
			cancel()
		}
	}))
	stage.AddSystemSet(OnPauseSet(menu).WithSystem(func(*World) { log = append(log, "menu.pause") }))
	stage.AddSystemSet(OnEnterSet(playing).WithSystem(func(*World) { log = append(log, "playing.enter") }))

	frame = 1
	if err := stage.Run(context.Background(), w); err != nil {
		t.Fatal(err)
	}
	log = nil
	frame = 2
	if err := stage.Run(ctx, w); err != nil {
		t.Fatalf("frame 2 returned %v", err)
	}
	expectFrame(t, log, "menu.update", "menu.pause", "playing.enter")

	s := MustResource[State[screen]](w)
	if got := s.Stack(); !slices.Equal(got, []screen{menu, playing}) {
		t.Errorf("expected [menu playing], got %v", got)
	}
	if _, pending := s.Transition(); pending {
		t.Error("transition left in flight after the frame")
	}
}

func TestCriteriaSameStateTwiceInStack(t *testing.T) {
	a := newScreenApp(t, menu)
	a.frame(t)
	_ = a.state().Push(playing)
	a.frame(t)
	_ = a.state().Push(menu)
	a.frame(t)

	// menu is both paused at the bottom and active on top.
	expectFrame(t, a.frame(t),
		"menu.update", "menu.inactive", "menu.in_stack",
		"playing.inactive", "playing.in_stack",
	)

	_ = a.state().Pop()
	a.frame(t)
	expectFrame(t, a.frame(t),
		"menu.inactive", "menu.in_stack",
		"playing.update", "playing.in_stack",
	)
}

func TestCriteriaSharedLabelRunsAllSets(t *testing.T) {
	w := NewWorld()
	InsertResource(w, NewState(menu))
	var log []string

	stage := NewStage("update").
		AddSystemSet(DriverSet[screen]()).
		AddSystemSet(OnUpdateSet(menu).WithSystem(func(*World) { log = append(log, "a") })).
		AddSystemSet(DriverSet[screen]()).
		AddSystemSet(OnUpdateSet(menu).WithSystem(func(*World) { log = append(log, "b") }))

	if err := stage.Run(context.Background(), w); err != nil {
		t.Fatal(err)
	}
	expectFrame(t, log, "a", "b")

	g := stage.Graph()
	if len(g.Criteria) != 2 {
		t.Errorf("expected driver and update nodes only, got %d", len(g.Criteria))
	}
}

func TestCriteriaOrderedAfterDriver(t *testing.T) {
	stage := NewStage("update").
		AddSystemSet(OnUpdateSet(menu)).
		AddSystemSet(DriverSet[screen]())
	if err := stage.Initialize(); err != nil {
		t.Fatal(err)
	}
	g := stage.Graph()
	if g.Criteria[0].Label != DriverLabel[screen]().String() {
		t.Errorf("driver not first: %+v", g.Criteria)
	}
}

func TestCriteriaWithoutDriverFails(t *testing.T) {
	stage := NewStage("update").AddSystemSet(OnEnterSet(menu))
	if err := stage.Initialize(); err == nil {
		t.Error("expected an unknown label error without a driver")
	}
}
