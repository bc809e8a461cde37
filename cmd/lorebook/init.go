package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var projectName string
	var scenario string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new lorebook project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName, scenario)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&scenario, "scenario", "main", "Scenario id for the default source")
	return cmd
}

func runInit(projectName, scenario string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	if _, err := os.Stat(schemaPath); err == nil {
		return fmt.Errorf("%s already exists", schemaPath)
	}

	configContents := fmt.Sprintf(`project: %s
version: 1

database:
  backend: sqlite
  dsn: sqlite://%s.db

engine:
  semantic_threshold: 0.75
  max_results: 10

sources:
  - name: main
    scenario: %s
    paths:
      - ./entries/

exclude:
  - ./entries/drafts/
`, projectName, projectName, scenario)

	schemaContents := `version: 1

# Custom condition types beyond the built-ins. Each maps onto a runtime
# context field.
condition_types: []
#  - name: faction_present
#    field: present_characters
#    description: A member of the named faction is in the scene.
`

	exampleEntry := `---
title: Example Entry
keywords: [example]
priority: 50
---

Replace this with the lore the engine should inject when a keyword
appears in conversation.
`

	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.WriteFile(schemaPath, []byte(schemaContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", schemaPath, err)
	}

	entriesDir := "entries"
	if err := os.MkdirAll(entriesDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", entriesDir, err)
	}
	examplePath := filepath.Join(entriesDir, "example.md")
	if _, err := os.Stat(examplePath); os.IsNotExist(err) {
		if err := os.WriteFile(examplePath, []byte(exampleEntry), 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", examplePath, err)
		}
	}

	return nil
}
