package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadforge/leadforge/internal/channel"
	"github.com/leadforge/leadforge/internal/config"
	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/engagement"
	"github.com/leadforge/leadforge/internal/observability"
	"github.com/leadforge/leadforge/internal/scheduler"
	"github.com/leadforge/leadforge/internal/types"
)

func TestWriteAndReadPIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leadforge.pid")

	require.NoError(t, WritePIDFile(path, 12345))

	pid, err := ReadPIDFile(path)
	require.NoError(t, err)
	assert.Equal(t, 12345, pid)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestWritePIDFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leadforge.pid")

	require.NoError(t, WritePIDFile(path, 100))
	require.NoError(t, WritePIDFile(path, 200))

	pid, err := ReadPIDFile(path)
	require.NoError(t, err)
	assert.Equal(t, 200, pid)
}

func TestWritePIDFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "leadforge.pid")
	require.NoError(t, WritePIDFile(path, os.Getpid()))

	pid, err := ReadPIDFile(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestReadPIDFileMissing(t *testing.T) {
	pid, err := ReadPIDFile(filepath.Join(t.TempDir(), "absent.pid"))
	require.NoError(t, err)
	assert.Zero(t, pid)
}

func TestReadPIDFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pid")
	require.NoError(t, os.WriteFile(path, []byte("not a pid\n"), 0600))

	_, err := ReadPIDFile(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("-5\n"), 0600))
	_, err = ReadPIDFile(path)
	require.Error(t, err)
}

func TestRemovePIDFileIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leadforge.pid")
	require.NoError(t, WritePIDFile(path, 1))

	require.NoError(t, RemovePIDFile(path))
	require.NoError(t, RemovePIDFile(path))
}

func TestCheckPIDFileLiveProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leadforge.pid")
	require.NoError(t, WritePIDFile(path, os.Getpid()))

	running, pid, err := CheckPIDFile(path)
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)
}

func TestCheckPIDFileStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leadforge.pid")
	// PIDs near the max are vanishingly unlikely to be live in a test env
	require.NoError(t, WritePIDFile(path, 4194000))

	running, pid, err := CheckPIDFile(path)
	require.NoError(t, err)
	assert.False(t, running)
	assert.Equal(t, 4194000, pid)
}

func TestCheckPIDFileMissing(t *testing.T) {
	running, pid, err := CheckPIDFile(filepath.Join(t.TempDir(), "absent.pid"))
	require.NoError(t, err)
	assert.False(t, running)
	assert.Zero(t, pid)
}

func TestStopWithoutDaemon(t *testing.T) {
	pid, err := Stop(filepath.Join(t.TempDir(), "absent.pid"))
	require.NoError(t, err)
	assert.Zero(t, pid)
}

func testProcessor(t *testing.T) *scheduler.Processor {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "daemon_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrator(db).Migrate(context.Background()))

	logger := observability.Discard()
	dispatch := config.DispatchConfig{DefaultChannel: channel.ChannelMessenger}
	return scheduler.NewProcessor(
		database.NewExecutionDAO(db),
		database.NewProspectDAO(db),
		database.NewTemplateDAO(db),
		engagement.NewTracker(database.NewEngagementDAO(db), logger),
		channel.NewOutboxSender(database.NewOutboxDAO(db), dispatch, logger),
		config.ProcessorConfig{BatchSize: 10, Workers: 1, SendTimeout: time.Second},
		dispatch, logger)
}

func TestDaemonRunStopsOnCancelAndRemovesPIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leadforge.pid")
	d := New(testProcessor(t), 10*time.Millisecond, path, observability.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	// let it write the pidfile and process a couple of empty batches
	require.Eventually(t, func() bool {
		pid, err := ReadPIDFile(path)
		return err == nil && pid == os.Getpid()
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop on context cancel")
	}

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDaemonRefusesSecondInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leadforge.pid")
	require.NoError(t, WritePIDFile(path, os.Getpid()))

	d := New(testProcessor(t), time.Minute, path, observability.Discard())
	err := d.Run(context.Background())
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.DAEMON_ALREADY_RUNNING))
}

func TestStopCleansStalePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leadforge.pid")
	require.NoError(t, WritePIDFile(path, 4194000))

	pid, err := Stop(path)
	require.NoError(t, err)
	assert.Zero(t, pid)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
