package core

import (
	"log"

	"github.com/comalice/ecsx"
	"go.opentelemetry.io/otel/trace"
)

// WithID overrides the generated App identifier. Snapshot keys embed it, so a
// restarted process must reuse the same ID to find its snapshots.
func WithID(id string) Option {
	return func(a *App) {
		if id != "" {
			a.id = id
		}
	}
}

// WithLogger configures the logger used for dropped commands and failing sinks.
func WithLogger(l *log.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithPersister configures the App with a custom Persister.
func WithPersister(p Persister) Option {
	return func(a *App) {
		a.persister = p
	}
}

// WithPublisher configures the App with a custom TransitionPublisher.
func WithPublisher(pb TransitionPublisher) Option {
	return func(a *App) {
		a.publisher = pb
	}
}

// WithVisualizer configures the App with a custom Visualizer.
func WithVisualizer(v Visualizer) Option {
	return func(a *App) {
		a.visualizer = v
	}
}

// WithHistory configures the App with a History keeping every settled snapshot.
func WithHistory(h History) Option {
	return func(a *App) {
		a.history = h
	}
}

// WithQueueSize configures the command queue buffer size.
func WithQueueSize(size int) Option {
	return func(a *App) {
		if size > 0 {
			a.queueSize = size
		}
	}
}

// WithMaxPasses bounds the passes of the update stage per frame.
func WithMaxPasses(n int) Option {
	return func(a *App) {
		a.maxPasses = n
	}
}

// WithSystemRunner decorates system execution of the update stage.
func WithSystemRunner(r ecsx.SystemRunner) Option {
	return func(a *App) {
		a.runner = r
	}
}

// WithTracer replaces the global OpenTelemetry tracer for stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(a *App) {
		a.tracer = t
	}
}
