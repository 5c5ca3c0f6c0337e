package extensibility

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/comalice/ecsx/internal/core"
)

// CommandSource produces commands from outside the frame loop.
type CommandSource interface {
	Commands() <-chan core.Command
}

// ChannelCommandSource is a CommandSource backed by a Go channel.
type ChannelCommandSource struct {
	ch chan core.Command
}

// NewChannelCommandSource creates a ChannelCommandSource with the given channel.
// The channel should be buffered if backpressure handling is needed.
func NewChannelCommandSource(ch chan core.Command) *ChannelCommandSource {
	return &ChannelCommandSource{ch: ch}
}

// Commands returns the receive-only channel for commands.
func (s *ChannelCommandSource) Commands() <-chan core.Command {
	return s.ch
}

// TimerCommandSource emits the same command every interval using time.Ticker.
// Useful for heartbeats and timeouts driven from wall-clock time.
type TimerCommandSource struct {
	ch     chan core.Command
	cmd    core.Command
	ticker *time.Ticker
	stop   chan struct{}
}

// NewTimerCommandSource creates a TimerCommandSource that emits cmd every d.
func NewTimerCommandSource(cmd core.Command, d time.Duration) *TimerCommandSource {
	t := &TimerCommandSource{
		ch:     make(chan core.Command, 10),
		cmd:    cmd,
		ticker: time.NewTicker(d),
		stop:   make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *TimerCommandSource) run() {
	for {
		select {
		case <-t.ticker.C:
			select {
			case t.ch <- t.cmd:
			default:
				// drop if full
			}
		case <-t.stop:
			t.ticker.Stop()
			close(t.ch)
			return
		}
	}
}

// Commands returns the command channel.
func (t *TimerCommandSource) Commands() <-chan core.Command {
	return t.ch
}

// Stop stops the ticker and closes the channel.
func (t *TimerCommandSource) Stop() {
	close(t.stop)
}

// Forward sends every command of src to sink until src closes or ctx is done.
// Backpressure errors from sink are logged and the command dropped.
func Forward(ctx context.Context, src CommandSource, sink func(core.Command) error, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	for {
		select {
		case cmd, ok := <-src.Commands():
			if !ok {
				return
			}
			if err := sink(cmd); err != nil {
				if errors.Is(err, core.ErrQueueFull) {
					logger.Printf("forward: dropped command: %v", err)
					continue
				}
				logger.Printf("forward: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
