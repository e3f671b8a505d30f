package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookies/internal/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestTasksDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("db", "bookies-tasks.db"), TasksDBPath("./db/bookies.db"))
	assert.Equal(t, filepath.Join("data", "store-tasks"), TasksDBPath("data/store"))
}

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	client, err := NewClient(filepath.Join(tmpDir, "test.db"), DefaultConfig())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(tmpDir, "test-tasks.db"))
	assert.NoError(t, err, "tasks database should be created")

	assert.NoError(t, client.Close())
}

func TestClientStartStop(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
}

func TestClientStopWithoutStart(t *testing.T) {
	client := newTestClient(t)
	assert.True(t, client.Stop(context.Background()))
}

type fakeCleaner struct {
	calls chan struct{}
	count int64
	err   error
}

func (f *fakeCleaner) DeleteOrphanAuthors(context.Context) (int64, error) {
	f.calls <- struct{}{}
	return f.count, f.err
}

func TestCleanupOrphanAuthorsTask_Runs(t *testing.T) {
	client := newTestClient(t)
	cleaner := &fakeCleaner{calls: make(chan struct{}, 1), count: 3}
	client.Register(NewCleanupOrphanAuthorsQueue(cleaner))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	id, err := client.Enqueue(ctx, CleanupOrphanAuthorsTask{Reason: "test"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case <-cleaner.calls:
	case <-time.After(5 * time.Second):
		t.Fatal("cleanup task was not executed within timeout")
	}

	assert.Eventually(t, func() bool {
		status, err := client.Status(ctx, id)
		return err == nil && status == "success"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestCleanupOrphanAuthorsProcessor(t *testing.T) {
	process := CleanupOrphanAuthorsProcessor(nil)
	assert.Error(t, process(context.Background(), CleanupOrphanAuthorsTask{}))

	cleaner := &fakeCleaner{calls: make(chan struct{}, 1), err: assert.AnError}
	process = CleanupOrphanAuthorsProcessor(cleaner)
	assert.ErrorIs(t, process(context.Background(), CleanupOrphanAuthorsTask{}), assert.AnError)
}

func TestCleanupOrphanAuthorsTaskConfig(t *testing.T) {
	cfg := CleanupOrphanAuthorsTask{}.Config()

	assert.Equal(t, CleanupOrphanAuthorsQueue, cfg.Name)
	assert.Equal(t, 2, cfg.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "pending", StatusString(backlite.TaskStatusPending))
	assert.Equal(t, "success", StatusString(backlite.TaskStatusSuccess))
	assert.Equal(t, "not_found", StatusString(backlite.TaskStatusNotFound))
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.Tasks{Workers: 4})
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)

	assert.Equal(t, DefaultConfig(), ConfigFrom(config.Tasks{}))
}
