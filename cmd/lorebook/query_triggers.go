package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"lorebook/internal/config"
)

func queryTriggersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "triggers <scenario>",
		Short: "Show trigger statistics for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryTriggers(cmd, args[0])
		},
	}
	return cmd
}

func runQueryTriggers(cmd *cobra.Command, scenario string) error {
	ctx := context.Background()

	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	stats, err := db.TriggerStats(ctx, scenario)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Fprintln(os.Stdout, "No entries found.")
		return nil
	}

	for _, stat := range stats {
		last := "never"
		if stat.LastTriggeredAt != nil {
			last = stat.LastTriggeredAt.UTC().Format(time.RFC3339)
		}
		marker := ""
		if stat.TriggerOnce {
			marker = " [once]"
		}
		fmt.Fprintf(os.Stdout, "%s  %s  count=%d  last=%s%s\n", stat.EntryID, stat.Title, stat.TriggerCount, last, marker)
	}
	return nil
}
