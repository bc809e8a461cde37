package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lorebook/internal/config"
	"lorebook/internal/engine"
)

func queryMatchCmd() *cobra.Command {
	var (
		location      string
		role          string
		owner         bool
		characters    []string
		events        []string
		items         []string
		relationships []string
		secrets       []string
		reputation    int
		maxResults    int
		record        bool
	)
	cmd := &cobra.Command{
		Use:   "match <scenario> <text>",
		Short: "Match scenario entries against conversation text",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario := args[0]
			text := strings.Join(args[1:], " ")

			rc := engine.Context{
				ActorRole:         role,
				IsOwner:           owner,
				CurrentLocation:   location,
				PresentCharacters: characters,
				CurrentEvents:     events,
				OwnedItems:        items,
				SecretsKnown:      secrets,
			}
			if cmd.Flags().Changed("reputation") {
				rc.Reputation = &reputation
			}
			var err error
			rc.Relationships, err = parseRelationshipPairs(relationships)
			if err != nil {
				return err
			}

			return runQueryMatch(cmd, scenario, text, rc, maxResults, record)
		},
	}
	cmd.Flags().StringVar(&location, "location", "", "Current location")
	cmd.Flags().StringVar(&role, "role", "", "Actor role (player, gm, ...)")
	cmd.Flags().BoolVar(&owner, "owner", false, "Actor owns the scenario")
	cmd.Flags().StringArrayVar(&characters, "character", nil, "Character present in the scene (repeatable)")
	cmd.Flags().StringArrayVar(&events, "event", nil, "Active event (repeatable)")
	cmd.Flags().StringArrayVar(&items, "item", nil, "Owned item (repeatable)")
	cmd.Flags().StringArrayVar(&relationships, "relationship", nil, "Relationship as name=standing (repeatable)")
	cmd.Flags().StringArrayVar(&secrets, "secret", nil, "Known secret id (repeatable)")
	cmd.Flags().IntVar(&reputation, "reputation", 0, "Actor reputation score")
	cmd.Flags().IntVar(&maxResults, "max", 0, "Cap on returned entries (0 uses the project default)")
	cmd.Flags().BoolVar(&record, "record", false, "Record a trigger for every returned entry")
	return cmd
}

func runQueryMatch(cmd *cobra.Command, scenario, text string, rc engine.Context, maxResults int, record bool) error {
	ctx := context.Background()

	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return err
	}

	schema, err := config.LoadSchema(schemaPath)
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	entries, err := db.ScenarioEntries(ctx, scenario)
	if err != nil {
		return err
	}

	if maxResults == 0 {
		maxResults = cfg.Engine.MaxResults
	}

	eng := engine.New(engine.Options{
		SemanticThreshold: cfg.Engine.SemanticThreshold,
		ConditionAliases:  schema.Aliases(),
	})

	results, diagnostics, err := eng.Select(entries, text, rc, maxResults)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(os.Stdout, "No entries matched.")
	}
	for _, result := range results {
		fmt.Fprintf(os.Stdout, "%s confidence=%.2f depth=%d keywords=%s\n",
			result.EntryID, result.Confidence, result.InsertDepth,
			strings.Join(result.MatchedKeywords, ","))
		if result.Excerpt != "" {
			fmt.Fprintf(os.Stdout, "  %s\n", result.Excerpt)
		}
	}

	if len(diagnostics) > 0 {
		fmt.Fprintf(os.Stdout, "\nDiagnostics (%d):\n", len(diagnostics))
		for _, d := range diagnostics {
			fmt.Fprintf(os.Stdout, "  - [%s] %s: %s\n", d.Severity, d.EntryID, d.Message)
		}
	}

	if record {
		for _, result := range results {
			if err := db.RecordTrigger(ctx, result.EntryID); err != nil {
				return fmt.Errorf("recording trigger for %s: %w", result.EntryID, err)
			}
		}
		fmt.Fprintf(os.Stdout, "\nRecorded %d triggers.\n", len(results))
	}

	return nil
}

func parseRelationshipPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	relationships := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid relationship %q: expected name=standing", pair)
		}
		relationships[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return relationships, nil
}
