package main

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/comalice/ecsx"
	"github.com/comalice/ecsx/builder"
	"github.com/comalice/ecsx/internal/core"
	"github.com/comalice/ecsx/internal/extensibility"
	"github.com/comalice/ecsx/internal/production"
)

type screen string

const (
	menu    screen = "menu"
	playing screen = "playing"
	paused  screen = "paused"
)

// game bundles the app with the sinks that need closing.
type game struct {
	app     *core.App
	records chan core.TransitionRecord
	history *production.SQLiteHistory

	closeOnce sync.Once
	closeErr  error
}

// Close closes the records channel and the history. Safe to call twice.
func (g *game) Close() error {
	g.closeOnce.Do(func() {
		if g.app != nil {
			g.closeErr = g.app.Close()
		}
		if g.history != nil {
			if err := g.history.Close(); g.closeErr == nil {
				g.closeErr = err
			}
		}
	})
	return g.closeErr
}

// newGame wires the demo app from the loaded configuration.
func newGame(logger *log.Logger) (*game, error) {
	persister, err := production.NewPersister(cfg.SnapshotFormat, cfg.SnapshotDir)
	if err != nil {
		return nil, err
	}

	g := &game{records: make(chan core.TransitionRecord, 256)}
	opts := []core.Option{
		core.WithLogger(logger),
		core.WithPersister(persister),
		core.WithPublisher(production.NewChannelPublisher(g.records)),
		core.WithVisualizer(&production.DOTVisualizer{}),
		core.WithMaxPasses(cfg.MaxSettlePasses),
		core.WithQueueSize(cfg.MaxCommandsPerTick),
	}
	if verbose {
		opts = append(opts, core.WithSystemRunner(extensibility.NewLoggingSystemRunner(ecsx.DefaultSystemRunner(), logger)))
	}
	if cfg.HistoryPath != "" {
		h, err := production.OpenSQLiteHistory(cfg.HistoryPath)
		if err != nil {
			return nil, err
		}
		g.history = h
		opts = append(opts, core.WithHistory(h))
	}

	g.app = core.NewApp(opts...)
	if err := installScreens(g.app); err != nil {
		_ = g.Close()
		return nil, err
	}
	return g, nil
}

// installScreens tracks the screen stack and registers its systems. Playing
// scores a point per frame; every tenth point the game pauses itself.
func installScreens(app *core.App) error {
	w := app.World()
	bb := ecsx.NewBlackboard()
	bb.Set("score", 0)
	bb.Set("paused", false)
	ecsx.InsertResource(w, bb)
	if err := core.TrackState(app, menu); err != nil {
		return err
	}

	board := func(w *ecsx.World) *ecsx.Blackboard {
		return *ecsx.MustResource[*ecsx.Blackboard](w)
	}
	screens := func(w *ecsx.World) *ecsx.State[screen] {
		return ecsx.MustResource[ecsx.State[screen]](w)
	}

	stack := builder.For[screen](app.Stage())
	stack.State(menu).
		Enter(func(w *ecsx.World) { board(w).Set("score", 0) }).
		Update(func(w *ecsx.World) { _ = screens(w).Push(playing) })
	stack.State(playing).
		Update(func(w *ecsx.World) {
			board(w).Modify("score", func(old any, _ bool) any {
				score, _ := old.(int)
				return score + 1
			})
		}).
		Pause(func(w *ecsx.World) { board(w).Set("paused", true) }).
		Resume(func(w *ecsx.World) { board(w).Set("paused", false) })
	stack.State(paused).
		Enter(func(w *ecsx.World) {
			score, _ := ecsx.BlackboardValue[int](board(w), "score")
			app.Logger().Printf("paused at score %d", score)
		})
	if err := stack.Build(); err != nil {
		return err
	}

	autoPause, err := extensibility.When("score > 0 && score % 10 == 0 && !paused",
		func(w *ecsx.World) { _ = screens(w).Push(paused) })
	if err != nil {
		return err
	}
	app.Stage().AddSystemSet(autoPause)
	return app.Stage().Initialize()
}

// resume is the command the timer source sends to leave the pause screen.
func resume(w *ecsx.World) error {
	s := ecsx.MustResource[ecsx.State[screen]](w)
	if s.Current() != paused {
		return nil
	}
	return s.Pop()
}

func printRecord(out io.Writer, rec core.TransitionRecord) {
	if rec.Kind == "None" {
		fmt.Fprintf(out, "frame %4d  settled %v\n", rec.Frame, rec.Stack)
		return
	}
	fmt.Fprintf(out, "frame %4d  %-16s %s -> %s\n", rec.Frame, rec.Kind, rec.Leaving, rec.Entering)
}
