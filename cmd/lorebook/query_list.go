package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lorebook/internal/config"
	"lorebook/internal/entry"
)

func queryListCmd() *cobra.Command {
	var scenario string
	var entryType string
	var category string
	var related string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryList(cmd, scenario, entryType, category, related)
		},
	}
	cmd.Flags().StringVar(&scenario, "scenario", "", "Scenario to filter")
	cmd.Flags().StringVar(&entryType, "type", "", "Entry type to filter")
	cmd.Flags().StringVar(&category, "category", "", "Category to filter")
	cmd.Flags().StringVar(&related, "related", "", "List entries referencing this entity")
	return cmd
}

func runQueryList(cmd *cobra.Command, scenario, entryType, category, related string) error {
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

	var entries []entry.Summary
	if related != "" {
		entries, err = db.ListRelated(ctx, related)
	} else {
		entries, err = db.ListEntries(ctx, scenario, entryType, category)
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "No entries found.")
		return nil
	}

	for _, e := range entries {
		marker := ""
		if !e.IsActive {
			marker = " [inactive]"
		}
		fmt.Fprintf(os.Stdout, "%s  %s (%s) priority=%d%s\n", e.ID, e.Title, e.Type, e.Priority, marker)
	}
	return nil
}
