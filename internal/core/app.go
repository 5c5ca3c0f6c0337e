// Package core provides the runtime core tier: an App owning a World and a
// Schedule, a command queue feeding the World between frames, and pluggable
// persistence, publishing, history and visualization of tracked state stacks.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/comalice/ecsx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// UpdateStage is the name of the stage every App starts with.
const UpdateStage = "update"

const defaultQueueSize = 1000

var (
	ErrQueueFull      = errors.New("command queue full (backpressure)")
	ErrAlreadyTracked = errors.New("state type already tracked")
	ErrNotTracked     = errors.New("state type not tracked")
	ErrStateMismatch  = errors.New("snapshot belongs to another state type")
)

// Command mutates the World between frames.
type Command func(w *ecsx.World) error

// Persister stores the latest snapshot of each tracked stack.
type Persister interface {
	Save(ctx context.Context, snapshot StateSnapshot) error
	Load(ctx context.Context, key string) (StateSnapshot, error)
}

// TransitionPublisher receives every transition phase of tracked stacks.
type TransitionPublisher interface {
	Publish(ctx context.Context, record TransitionRecord) error
	Close() error
}

// Visualizer renders the schedule graph.
type Visualizer interface {
	ExportDOT(stages []ecsx.StageGraph) string
}

// Option applies configuration to App via functional options pattern.
type Option func(*App)

// App is a World driven by a Schedule.
//
// Send is safe from any goroutine; commands are applied in FIFO order at the
// start of the next Update. Everything else touching the World must happen
// from the goroutine calling Update, or inside a Command.
type App struct {
	id       string
	world    *ecsx.World
	schedule *ecsx.Schedule
	update   *ecsx.Stage
	commands chan Command
	frame    atomic.Uint64
	mu       sync.Mutex

	logger     *log.Logger
	persister  Persister
	publisher  TransitionPublisher
	visualizer Visualizer
	history    History

	queueSize int
	maxPasses int
	runner    ecsx.SystemRunner
	tracer    trace.Tracer

	// Filled by state observers during a frame, flushed after it.
	records   []TransitionRecord
	snapshots []StateSnapshot
}

// NewApp creates an App with an empty World and a schedule holding the
// update stage.
func NewApp(opts ...Option) *App {
	a := &App{
		id:        uuid.NewString(),
		world:     ecsx.NewWorld(),
		logger:    log.New(io.Discard, "", 0),
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.commands = make(chan Command, a.queueSize)

	stageOpts := []ecsx.StageOption{ecsx.WithMaxPasses(a.maxPasses)}
	if a.runner != nil {
		stageOpts = append(stageOpts, ecsx.WithSystemRunner(a.runner))
	}
	if a.tracer != nil {
		stageOpts = append(stageOpts, ecsx.WithTracer(a.tracer))
	}
	a.schedule = ecsx.NewSchedule()
	// A fresh schedule has no stages, so this cannot collide.
	a.update, _ = a.schedule.AddStage(UpdateStage, stageOpts...)
	return a
}

func (a *App) ID() string { return a.id }

// World returns the App's World. Do not use it concurrently with Update.
func (a *App) World() *ecsx.World { return a.world }

func (a *App) Schedule() *ecsx.Schedule { return a.schedule }

// Stage returns the update stage.
func (a *App) Stage() *ecsx.Stage { return a.update }

func (a *App) Logger() *log.Logger { return a.logger }

// Frame returns the number of completed Update calls.
func (a *App) Frame() uint64 { return a.frame.Load() }

// Send enqueues cmd for the next Update without blocking.
// Returns ErrQueueFull on backpressure.
// Thread-safe.
func (a *App) Send(cmd Command) error {
	select {
	case a.commands <- cmd:
		return nil
	default:
		a.logger.Printf("app %s: dropped command at frame %d: queue full", a.id, a.Frame())
		return ErrQueueFull
	}
}

// Update applies the commands queued so far, runs the schedule once and then
// hands what the tracked stacks produced to the publisher, persister and
// history. Command errors do not stop the frame; they are returned joined.
func (a *App) Update(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for n := len(a.commands); n > 0; n-- {
		cmd := <-a.commands
		if err := cmd(a.world); err != nil {
			a.logger.Printf("app %s: command failed: %v", a.id, err)
			errs = append(errs, err)
		}
	}

	if err := a.schedule.Run(ctx, a.world); err != nil {
		errs = append(errs, fmt.Errorf("frame %d: %w", a.Frame(), err))
	}
	a.frame.Add(1)
	a.flush(ctx)
	return errors.Join(errs...)
}

// flush publishes and stores what observers collected during the frame.
// Failures are logged; a broken sink never fails the frame.
func (a *App) flush(ctx context.Context) {
	records, snapshots := a.records, a.snapshots
	a.records, a.snapshots = nil, nil

	if a.publisher != nil {
		for _, rec := range records {
			if err := a.publisher.Publish(ctx, rec); err != nil {
				a.logger.Printf("app %s: publish %s: %v", a.id, rec.Kind, err)
			}
		}
	}
	for _, snap := range snapshots {
		if a.persister != nil {
			if err := a.persister.Save(ctx, snap); err != nil {
				a.logger.Printf("app %s: persist %s: %v", a.id, snap.Key(), err)
			}
		}
		if a.history != nil {
			if err := a.history.Append(ctx, snap); err != nil {
				a.logger.Printf("app %s: history %s: %v", a.id, snap.Key(), err)
			}
		}
	}
}

// Visualize returns the Graphviz DOT rendering of the schedule.
func (a *App) Visualize() string {
	if a.visualizer == nil {
		return "ERROR: No visualizer configured. Use WithVisualizer(&production.DOTVisualizer{})"
	}
	return a.visualizer.ExportDOT(a.schedule.Graph())
}

// Close releases the publisher.
func (a *App) Close() error {
	if a.publisher != nil {
		return a.publisher.Close()
	}
	return nil
}
