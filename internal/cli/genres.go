package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/bookies/internal/catalogue"
	"github.com/mrlokans/bookies/internal/config"
	"github.com/mrlokans/bookies/internal/database"
	"github.com/mrlokans/bookies/internal/database/books"
)

// Genres are reference data: the web UI only picks from them.
func newGenresCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "genres",
		Short: "List or add catalogue genres",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDatabasePath, "Path to the catalogue database")

	list := &cobra.Command{
		Use:   "list",
		Short: "Print every genre",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listGenres(cmd, dbPath)
		},
	}

	add := &cobra.Command{
		Use:   "add <name>...",
		Short: "Add genres that do not exist yet",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return addGenres(cmd, dbPath, args)
		},
	}

	cmd.AddCommand(list, add)
	return cmd
}

func listGenres(cmd *cobra.Command, dbPath string) error {
	db, err := database.NewDatabase(dbPath, nil)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	genres, err := catalogue.NewManager(books.NewRepository(db.DB)).ListGenres(ctx)
	if err != nil {
		return err
	}
	for _, g := range genres {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", g.ID, g.Name)
	}
	return nil
}

func addGenres(cmd *cobra.Command, dbPath string, names []string) error {
	db, err := database.NewDatabase(dbPath, nil)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	for _, name := range names {
		created, err := db.AddGenre(name)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", name)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "exists %s\n", name)
		}
	}
	return nil
}
