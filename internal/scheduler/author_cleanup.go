// Package scheduler runs periodic maintenance on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookies/internal/config"
	"github.com/mrlokans/bookies/internal/tasks"
)

// Enqueuer hands tasks to the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// AuthorCleanupScheduler enqueues an orphan-author cleanup on a schedule.
type AuthorCleanupScheduler struct {
	queue    Enqueuer
	schedule string
	enabled  bool

	cron      *cron.Cron
	parsed    cron.Schedule
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

// NewAuthorCleanupScheduler creates a scheduler from config.
func NewAuthorCleanupScheduler(queue Enqueuer, cfg config.AuthorCleanup) *AuthorCleanupScheduler {
	return &AuthorCleanupScheduler{
		queue:    queue,
		schedule: cfg.Schedule,
		enabled:  cfg.Enabled,
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the job and starts cron. It stops again when ctx is done.
func (s *AuthorCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.enabled {
		log.Printf("Author cleanup scheduler: disabled")
		return nil
	}
	if s.queue == nil {
		log.Printf("Author cleanup scheduler: task queue not available, skipping")
		return nil
	}
	parsed, err := cronParser.Parse(s.schedule)
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}
	s.parsed = parsed
	s.entryID = s.cron.Schedule(parsed, cron.FuncJob(s.enqueue))

	s.cron.Start()
	s.isRunning = true
	log.Printf("Author cleanup scheduler: started with schedule '%s'. Next run: %v", s.schedule, s.nextRunLocked())

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop stops cron and waits for a running job to return.
func (s *AuthorCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	s.isRunning = false
	log.Printf("Author cleanup scheduler: stopped")
}

// IsRunning reports whether the schedule is active.
func (s *AuthorCleanupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next cleanup will be enqueued, or nil if stopped.
func (s *AuthorCleanupScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return nil
	}
	next := s.nextRunLocked()
	return &next
}

func (s *AuthorCleanupScheduler) nextRunLocked() time.Time {
	return s.parsed.Next(time.Now())
}

func (s *AuthorCleanupScheduler) enqueue() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, err := s.queue.Enqueue(ctx, tasks.CleanupOrphanAuthorsTask{Reason: "schedule"})
	if err != nil {
		log.Printf("Author cleanup scheduler: enqueue failed: %v", err)
		return
	}
	log.Printf("Author cleanup scheduler: enqueued task %s", id)
}
