// Package daemon runs the periodic step processor as a long-lived
// background process with pidfile-based single-instance enforcement.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/leadforge/leadforge/internal/scheduler"
	"github.com/leadforge/leadforge/internal/types"
)

// Daemon drives Processor.ProcessDue on a fixed interval. Batches never
// overlap: a tick that fires while a batch is still running is absorbed
// by the next loop iteration.
type Daemon struct {
	processor *scheduler.Processor
	interval  time.Duration
	pidPath   string
	logger    *slog.Logger
}

// New creates a Daemon.
func New(processor *scheduler.Processor, interval time.Duration, pidPath string, logger *slog.Logger) *Daemon {
	return &Daemon{
		processor: processor,
		interval:  interval,
		pidPath:   pidPath,
		logger:    logger,
	}
}

// Run processes batches until ctx is canceled. It refuses to start when
// another instance holds the pidfile and replaces a stale one. The first
// batch runs immediately rather than waiting a full interval.
func (d *Daemon) Run(ctx context.Context) error {
	running, pid, err := CheckPIDFile(d.pidPath)
	if err != nil {
		return types.WrapError(types.DAEMON_START_FAILED, "failed to check pidfile", err)
	}
	if running {
		return types.NewError(types.DAEMON_ALREADY_RUNNING,
			fmt.Sprintf("daemon already running with PID %d", pid))
	}
	if pid > 0 {
		d.logger.Warn("removing stale pidfile", "path", d.pidPath, "stale_pid", pid)
	}

	if err := WritePIDFile(d.pidPath, os.Getpid()); err != nil {
		return types.WrapError(types.DAEMON_START_FAILED, "failed to write pidfile", err)
	}
	defer func() {
		if err := RemovePIDFile(d.pidPath); err != nil {
			d.logger.Warn("failed to remove pidfile", "error", err)
		}
	}()

	d.logger.Info("daemon started", "pid", os.Getpid(), "interval", d.interval)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.runBatch(ctx)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon stopping")
			return nil
		case <-ticker.C:
			d.runBatch(ctx)
		}
	}
}

// runBatch processes one batch, logging failures instead of stopping the
// loop. A broken store on one tick should not kill the daemon.
func (d *Daemon) runBatch(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	result, err := d.processor.ProcessDue(ctx)
	if err != nil {
		d.logger.Error("batch failed", "error", err)
		return
	}
	if result.Due > 0 {
		d.logger.Info("batch complete",
			"due", result.Due, "sent", result.Sent,
			"skipped", result.Skipped, "failed", result.Failed)
	}
}

// Stop signals the daemon process named by the pidfile with SIGTERM.
// Returns the signaled PID, or 0 when no daemon is running.
func Stop(pidPath string) (int, error) {
	running, pid, err := CheckPIDFile(pidPath)
	if err != nil {
		return 0, err
	}
	if !running {
		if pid > 0 {
			// stale pidfile, clean it up
			return 0, RemovePIDFile(pidPath)
		}
		return 0, nil
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return 0, fmt.Errorf("failed to signal daemon %d: %w", pid, err)
	}
	return pid, nil
}
