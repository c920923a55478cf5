package cli

import (
	"github.com/spf13/cobra"

	"github.com/helpdesk/it-helpdesk/internal/persistence"
)

// NewMigrateCommand returns `migrate up|status`.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply the embedded SQL migrations or report their status against POSTGRES_DSN.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run all pending migrations",
			RunE:  runMigrateUp,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			RunE:  runMigrateStatus,
		},
	)
	return cmd
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	e, err := initEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.close()
	return persistence.RunMigrations(cmd.Context(), e.pg.PoolHandle(), e.logger)
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	e, err := initEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.close()
	return persistence.MigrationStatus(cmd.Context(), e.pg.PoolHandle())
}
