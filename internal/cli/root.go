// Package cli implements the bookies command line: the server plus a few
// maintenance commands that work directly on the database.
package cli

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrlokans/bookies/internal/config"
	"github.com/mrlokans/bookies/internal/entrypoint"
)

// NewRootCommand builds the command tree. Running it without a
// subcommand starts the server.
func NewRootCommand(version string) *cobra.Command {
	serve := newServeCommand(version)

	root := &cobra.Command{
		Use:           "bookies",
		Short:         "Shared book catalogue with personal collections",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(
		serve,
		NewUserAddCommand().Command(),
		newGenresCommand(),
		NewCleanupAuthorsCommand().Command(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute(version string) {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newServeCommand(version string) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig()
			if dbPath != "" {
				cfg.Database.Path = dbPath
			}
			entrypoint.Run(cfg, version)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "Path to the catalogue database (overrides DATABASE_PATH)")
	return cmd
}

// addDatabaseFlag registers the shared --db flag.
func addDatabaseFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "db", config.DefaultDatabasePath, "Path to the catalogue database")
}

// terminalPassword reads a password without echoing it.
func terminalPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(string(raw), "\r\n"), nil
}
