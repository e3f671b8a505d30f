package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// CleanupOrphanAuthorsQueue is the queue name for author cleanup.
const CleanupOrphanAuthorsQueue = "cleanup_orphan_authors"

// OrphanAuthorsCleaner deletes authors no book references.
type OrphanAuthorsCleaner interface {
	DeleteOrphanAuthors(ctx context.Context) (int64, error)
}

// CleanupOrphanAuthorsTask removes authors left behind by deleted books.
type CleanupOrphanAuthorsTask struct {
	// Reason records who asked for the run ("schedule", "admin", ...).
	Reason string `json:"reason,omitempty"`
}

// Config returns the queue configuration for cleanup tasks.
func (t CleanupOrphanAuthorsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        CleanupOrphanAuthorsQueue,
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupOrphanAuthorsProcessor runs the cleanup against cleaner.
func CleanupOrphanAuthorsProcessor(cleaner OrphanAuthorsCleaner) backlite.QueueProcessor[CleanupOrphanAuthorsTask] {
	return func(ctx context.Context, task CleanupOrphanAuthorsTask) error {
		if cleaner == nil {
			return fmt.Errorf("orphan authors cleaner not configured")
		}

		deleted, err := cleaner.DeleteOrphanAuthors(ctx)
		if err != nil {
			return fmt.Errorf("cleanup orphan authors: %w", err)
		}

		log.Printf("[TASK] Cleaned up %d orphan authors (reason: %s)", deleted, task.Reason)
		return nil
	}
}

// NewCleanupOrphanAuthorsQueue creates the backlite queue for author cleanup.
func NewCleanupOrphanAuthorsQueue(cleaner OrphanAuthorsCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupOrphanAuthorsProcessor(cleaner))
}
