package main

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"
)

var dotCmd = &cobra.Command{
	Use:   "dot",
	Short: "Print the schedule as Graphviz DOT",
	Long: `Dot builds the demo schedule without running it and prints its run
criteria, system sets and ordering edges in DOT format.

Example:
  ecsx-demo dot | dot -Tsvg > schedule.svg`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := newGame(log.New(io.Discard, "", 0))
		if err != nil {
			return err
		}
		defer g.Close()
		fmt.Fprintln(cmd.OutOrStdout(), g.app.Visualize())
		return nil
	},
}
