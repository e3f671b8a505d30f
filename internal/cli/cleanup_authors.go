package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/bookies/internal/catalogue"
	"github.com/mrlokans/bookies/internal/database"
	"github.com/mrlokans/bookies/internal/database/books"
	"github.com/mrlokans/bookies/internal/tasks"
)

// CleanupAuthorsCommand removes authors no book refers to any more.
type CleanupAuthorsCommand struct {
	DatabasePath string
	Enqueue      bool
}

func NewCleanupAuthorsCommand() *CleanupAuthorsCommand {
	return &CleanupAuthorsCommand{}
}

func (cc *CleanupAuthorsCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup-authors",
		Short: "Delete authors without books",
		Long: `Delete authors that no book references.

With --enqueue the cleanup is handed to the running server's task queue
instead of being executed here.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cc.Run(cmd.Context(), cmd)
		},
	}
	addDatabaseFlag(cmd, &cc.DatabasePath)
	cmd.Flags().BoolVar(&cc.Enqueue, "enqueue", false, "Queue the cleanup for the server instead of running it now")
	return cmd
}

func (cc *CleanupAuthorsCommand) Run(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if cc.Enqueue {
		client, err := tasks.NewClient(cc.DatabasePath, tasks.DefaultConfig())
		if err != nil {
			return err
		}
		defer client.Close()
		// Registered only so the task is accepted; the server's workers run it.
		client.Register(tasks.NewCleanupOrphanAuthorsQueue(nil))

		id, err := client.Enqueue(ctx, tasks.CleanupOrphanAuthorsTask{Reason: "cli"})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Queued task %s\n", id)
		return nil
	}

	db, err := database.NewDatabase(cc.DatabasePath, nil)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	deleted, err := catalogue.NewManager(books.NewRepository(db.DB)).DeleteOrphanAuthors(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d orphan authors\n", deleted)
	return nil
}
