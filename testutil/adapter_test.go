package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/comalice/ecsx"
	"github.com/comalice/ecsx/internal/core"
)

type screen string

const (
	menu    screen = "menu"
	playing screen = "playing"
	paused  screen = "paused"
)

func TestAdapterInterface(t *testing.T) {
	tests := []struct {
		name    string
		adapter func(app *core.App) (RuntimeAdapter[screen], error)
	}{
		{"Stepped", func(app *core.App) (RuntimeAdapter[screen], error) {
			return NewStepAdapter(app, menu)
		}},
		{"TickBased", func(app *core.App) (RuntimeAdapter[screen], error) {
			return NewTickAdapter(app, menu, 2*time.Millisecond)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &Recorder{}
			adapter, err := tt.adapter(core.NewApp(core.WithPublisher(rec)))
			if err != nil {
				t.Fatalf("adapter: %v", err)
			}
			RunCommonTests(t, adapter)

			got := rec.Transitions()
			want := []string{
				"Startup",
				"Pausing(menu,playing)", "Entering(menu,playing)",
				"Pausing(playing,paused)", "Entering(playing,paused)",
				"ExitingToResume(paused,playing)", "Resuming(paused,playing)",
			}
			var changes []string
			for _, line := range got {
				if line != "None" {
					changes = append(changes, line)
				}
			}
			if len(changes) != len(want) {
				t.Fatalf("transitions: got %v, want %v", changes, want)
			}
			for i := range want {
				if changes[i] != want[i] {
					t.Errorf("transition %d: got %q, want %q", i, changes[i], want[i])
				}
			}
		})
	}
}

// RunCommonTests drives the same push/push/pop scenario on any adapter.
func RunCommonTests(t *testing.T, adapter RuntimeAdapter[screen]) {
	ctx := context.Background()
	if err := adapter.Start(ctx); err != nil {
		t.Fatalf("Failed to start: %v", err)
	}
	defer adapter.Stop()

	if err := adapter.WaitForStability(time.Second); err != nil {
		t.Fatalf("WaitForStability failed: %v", err)
	}
	if !adapter.IsInState(menu) {
		t.Errorf("expected initial state %q, got %v", menu, adapter.Stack())
	}

	steps := []struct {
		op    func(s *ecsx.State[screen]) error
		stack []screen
	}{
		{func(s *ecsx.State[screen]) error { return s.Push(playing) }, []screen{menu, playing}},
		{func(s *ecsx.State[screen]) error { return s.Push(paused) }, []screen{menu, playing, paused}},
		{func(s *ecsx.State[screen]) error { return s.Pop() }, []screen{menu, playing}},
	}
	for i, step := range steps {
		if err := adapter.Send(core.StateCommand(step.op)); err != nil {
			t.Fatalf("step %d: Send failed: %v", i, err)
		}
		if err := adapter.WaitForStability(time.Second); err != nil {
			t.Fatalf("step %d: WaitForStability failed: %v", i, err)
		}
		got := adapter.Stack()
		if len(got) != len(step.stack) {
			t.Fatalf("step %d: stack %v, want %v", i, got, step.stack)
		}
		for j := range got {
			if got[j] != step.stack[j] {
				t.Errorf("step %d: stack %v, want %v", i, got, step.stack)
				break
			}
		}
	}
}
