package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/comalice/ecsx/internal/extensibility"
	"github.com/comalice/ecsx/internal/telemetry"
	"github.com/comalice/ecsx/realtime"
)

var (
	ticks       int
	resumeAfter time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the screen stack on the realtime runtime",
	Long: `Run starts the realtime runtime and prints every transition the screen
stack goes through. The game pauses itself every ten points; a timer resumes
it.

Example:
  ecsx-demo run --ticks 300 --resume-after 250ms`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func init() {
	runCmd.Flags().IntVar(&ticks, "ticks", 120, "stop after this many ticks (0 runs until interrupted)")
	runCmd.Flags().DurationVar(&resumeAfter, "resume-after", 200*time.Millisecond, "period of the resume timer")
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	logger := log.New(os.Stderr, "ecsx-demo ", log.LstdFlags)
	g, err := newGame(logger)
	if err != nil {
		return err
	}
	defer g.Close()

	rt := realtime.NewRuntime(g.app, realtime.Config{
		TickRate:           cfg.TickRate,
		MaxCommandsPerTick: cfg.MaxCommandsPerTick,
	})

	timer := extensibility.NewTimerCommandSource(resume, resumeAfter)
	defer timer.Stop()
	go extensibility.Forward(ctx, timer, rt.SendCommand, logger)

	out := cmd.OutOrStdout()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for rec := range g.records {
			printRecord(out, rec)
		}
	}()

	if err := rt.Start(ctx); err != nil {
		return err
	}
	poll := time.NewTicker(cfg.TickRate)
	defer poll.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-poll.C:
			if ticks > 0 && rt.GetTickNumber() >= uint64(ticks) {
				break loop
			}
		}
	}
	_ = rt.Stop()
	_ = g.Close()
	<-done

	fmt.Fprintf(out, "stopped after %d ticks, %d frames\n", rt.GetTickNumber(), rt.Frame())
	return nil
}
