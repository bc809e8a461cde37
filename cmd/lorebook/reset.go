package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lorebook/internal/config"
)

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset <scenario>",
		Short: "Reset trigger state for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(cmd, args[0])
		},
	}
	return cmd
}

func runReset(cmd *cobra.Command, scenario string) error {
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

	affected, err := db.ResetTriggers(ctx, scenario)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Reset trigger state for %d entries.\n", affected)
	return nil
}
