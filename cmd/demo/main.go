// Package main provides the ecsx-demo CLI: a menu/playing/paused screen stack
// driven by the realtime runtime.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/comalice/ecsx/internal/config"
)

var (
	// configFile is set by the --config flag.
	configFile string

	// verbose enables per-system timing logs.
	verbose bool

	// cfg is loaded before any subcommand runs.
	cfg config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ecsx-demo",
	Short: "Run a stacked screen state machine on a fixed tick",
	Long: `ecsx-demo drives a menu/playing/paused screen stack on the realtime
runtime. Transitions are printed as they happen, snapshots are saved to the
configured snapshot directory and, when history_path is set, appended to a
SQLite history.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every system run")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(dotCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ecsx-demo v0.1.0")
	},
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	c, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c
	return nil
}
