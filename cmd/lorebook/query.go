package main

import "github.com/spf13/cobra"

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the entry store from the CLI",
	}
	cmd.AddCommand(queryMatchCmd())
	cmd.AddCommand(queryEntryCmd())
	cmd.AddCommand(queryListCmd())
	cmd.AddCommand(queryTriggersCmd())
	cmd.AddCommand(querySearchCmd())
	cmd.AddCommand(querySQLCmd())
	return cmd
}
