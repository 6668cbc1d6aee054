package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// WritePIDFile atomically writes the process ID to path. The file is
// created with 0600 permissions via a temp file and rename so a crashed
// write never leaves a corrupt pidfile.
func WritePIDFile(path string, pid int) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create PID file directory: %w", err)
	}

	// temp file must live in the same directory for the rename to be atomic
	tempFile, err := os.CreateTemp(dir, ".leadforge.pid.tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp PID file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := fmt.Fprintf(tempFile, "%d\n", pid); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write PID to temp file: %w", err)
	}
	if err := tempFile.Chmod(0600); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to set PID file permissions: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp PID file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename PID file: %w", err)
	}
	return nil
}

// ReadPIDFile reads the process ID from path. A missing file returns
// (0, nil): no pidfile means no daemon.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file %q: %w", path, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid PID value %d in file %q", pid, path)
	}
	return pid, nil
}

// RemovePIDFile deletes the pidfile. Removing a missing file is not an
// error, so shutdown paths can call it unconditionally.
func RemovePIDFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// CheckPIDFile reports whether the daemon named by the pidfile is
// actually running. A pidfile pointing at a dead process is stale, not
// an error: callers get (false, pid, nil) and may clean it up.
//
// Process liveness uses kill(pid, 0). EPERM counts as running since the
// process exists under another user.
func CheckPIDFile(path string) (running bool, pid int, err error) {
	pid, err = ReadPIDFile(path)
	if err != nil {
		return false, 0, err
	}
	if pid == 0 {
		return false, 0, nil
	}

	err = syscall.Kill(pid, 0)
	switch {
	case err == nil:
		return true, pid, nil
	case err == syscall.ESRCH:
		return false, pid, nil
	case err == syscall.EPERM:
		return true, pid, nil
	}
	return false, pid, fmt.Errorf("failed to check process %d: %w", pid, err)
}
