package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lorebook/internal/config"
)

func querySearchCmd() *cobra.Command {
	var scenario string
	var entryType string
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search entries using the full-text index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuerySearch(cmd, args[0], scenario, entryType)
		},
	}
	cmd.Flags().StringVar(&scenario, "scenario", "", "Scenario to filter")
	cmd.Flags().StringVar(&entryType, "type", "", "Entry type to filter")
	return cmd
}

func runQuerySearch(cmd *cobra.Command, query, scenario, entryType string) error {
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

	results, err := db.Search(ctx, query, scenario, entryType)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stdout, "No matches found.")
		return nil
	}

	for _, result := range results {
		fmt.Fprintf(os.Stdout, "%s  %s (%s) score=%.2f\n", result.ID, result.Title, result.Type, result.Score)
		if result.Snippet != "" {
			fmt.Fprintf(os.Stdout, "  %s\n", result.Snippet)
		}
	}
	return nil
}
