package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/bookies/internal/auth"
	"github.com/mrlokans/bookies/internal/config"
	"github.com/mrlokans/bookies/internal/database"
	"github.com/mrlokans/bookies/internal/database/users"
)

// UserAddCommand creates an account from the command line. Registering
// the admin username this way is how an installation gets its admin.
type UserAddCommand struct {
	DatabasePath string
	Username     string

	// ReadPassword prompts for a secret; the terminal reader by default.
	ReadPassword func(prompt string) (string, error)
}

func NewUserAddCommand() *UserAddCommand {
	return &UserAddCommand{ReadPassword: terminalPassword}
}

func (uc *UserAddCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "useradd <username>",
		Short: "Create a user account",
		Example: `  bookies useradd alice
  bookies useradd ADMIN --db ./db/bookies.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc.Username = args[0]
			return uc.Run(cmd.Context(), cmd)
		},
	}
	addDatabaseFlag(cmd, &uc.DatabasePath)
	return cmd
}

func (uc *UserAddCommand) Run(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	password, err := uc.ReadPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := uc.ReadPassword("Confirm password: ")
	if err != nil {
		return err
	}

	db, err := database.NewDatabase(uc.DatabasePath, nil)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	cfg := config.NewConfig().Auth
	service := auth.NewService(users.NewRepository(db.DB), cfg)

	user, err := service.Register(ctx, uc.Username, password, confirm)
	if err != nil {
		return fmt.Errorf("could not create %q: %w", uc.Username, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d, role %s)\n",
		user.Username, user.ID, service.Roles().RoleFor(user.Username))
	return nil
}
