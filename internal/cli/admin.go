package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helpdesk/it-helpdesk/internal/events"
	"github.com/helpdesk/it-helpdesk/internal/repository"
	"github.com/helpdesk/it-helpdesk/internal/service"
)

// NewAdminCommand returns `admin create`.
func NewAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}
	cmd.AddCommand(newAdminCreateCommand())
	return cmd
}

func newAdminCreateCommand() *cobra.Command {
	var input service.SeedAdminInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an approved Admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := initEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			users := repository.NewUserRepository(e.pg.PoolHandle())
			authService := service.NewAuthService(e.cfg.Auth, users, events.NewInMemoryDispatcher(e.logger), e.logger)
			user, created, err := authService.SeedAdmin(cmd.Context(), input)
			if err != nil {
				return err
			}
			if !created {
				return fmt.Errorf("an account with email %s already exists", user.Email)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Email, "email", "", "Admin email address (required)")
	cmd.Flags().StringVar(&input.Password, "password", "", "Admin password (required)")
	cmd.Flags().StringVar(&input.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&input.LastName, "last-name", "", "Last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
