package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lorebook/internal/config"
)

func queryEntryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry <id>",
		Short: "Display an entry and its matching configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryEntry(cmd, args[0])
		},
	}
	return cmd
}

func runQueryEntry(cmd *cobra.Command, id string) error {
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

	e, err := db.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if e == nil {
		fmt.Fprintf(os.Stdout, "No entry found for %q.\n", id)
		return nil
	}

	fmt.Fprintf(os.Stdout, "ID: %s\n", e.ID)
	fmt.Fprintf(os.Stdout, "Scenario: %s\n", e.ScenarioID)
	fmt.Fprintf(os.Stdout, "Title: %s\n", e.Title)
	fmt.Fprintf(os.Stdout, "Type: %s\n", e.Type)
	if e.Category != "" {
		fmt.Fprintf(os.Stdout, "Category: %s\n", e.Category)
	}
	fmt.Fprintf(os.Stdout, "Keywords: %s (%s)\n", strings.Join(e.Keywords, ", "), e.MatchType)
	fmt.Fprintf(os.Stdout, "Priority: %d\n", e.Priority)
	fmt.Fprintf(os.Stdout, "Visibility: %s\n", e.Visibility)
	if len(e.Conditions) > 0 {
		fmt.Fprintln(os.Stdout, "Conditions:")
		for _, c := range e.Conditions {
			fmt.Fprintf(os.Stdout, "  - %s: %s\n", c.Type, c.Requirement)
		}
	}
	if len(e.RelatedEntities) > 0 {
		fmt.Fprintf(os.Stdout, "Related: %s\n", strings.Join(e.RelatedEntities, ", "))
	}
	fmt.Fprintf(os.Stdout, "Triggers: %d", e.TriggerCount)
	if e.TriggerOnce {
		fmt.Fprint(os.Stdout, " (trigger once)")
	}
	fmt.Fprintln(os.Stdout, "")
	if e.SourceFile != "" {
		fmt.Fprintf(os.Stdout, "Source: %s\n", e.SourceFile)
	}
	if e.Content != "" {
		fmt.Fprintf(os.Stdout, "\n%s\n", e.Content)
	}
	return nil
}
