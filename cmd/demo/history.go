package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comalice/ecsx/internal/production"
)

var historyCmd = &cobra.Command{
	Use:   "history [key]",
	Short: "List snapshot history",
	Long: `History lists the snapshot keys stored in history_path. With a key it
lists that key's versions, newest first, and prints the latest snapshot.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	if cfg.HistoryPath == "" {
		return errors.New("history_path is not configured")
	}
	h, err := production.OpenSQLiteHistory(cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer h.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		keys, err := h.ListKeys(ctx)
		if err != nil {
			return fmt.Errorf("list keys: %w", err)
		}
		for _, k := range keys {
			fmt.Fprintln(out, k)
		}
		return nil
	}

	versions, err := h.ListVersions(ctx, args[0])
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}
	for _, v := range versions {
		fmt.Fprintln(out, v)
	}
	latest, err := h.Latest(ctx, args[0])
	if err != nil {
		return fmt.Errorf("latest: %w", err)
	}
	data, err := json.MarshalIndent(latest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
