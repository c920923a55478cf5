package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/helpdesk/it-helpdesk/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "helpdeskctl",
		Short: "Administrative tooling for the IT help desk",
	}

	rootCmd.AddCommand(
		cli.NewMigrateCommand(),
		cli.NewAdminCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
