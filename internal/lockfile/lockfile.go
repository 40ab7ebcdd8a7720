package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Name is the lockfile created inside general.data_root.
const Name = "resfetch.lock"

// ErrHeld is returned when a live process owns the lock.
var ErrHeld = errors.New("resfetch is already running")

// LockFile is an exclusive PID lock guarding library installs.
type LockFile struct {
	path string
	file *os.File
}

// ForDataRoot returns the lock path for a data root.
func ForDataRoot(dataRoot string) string {
	return filepath.Join(dataRoot, Name)
}

// Acquire creates the lockfile at path. A lock left behind by a dead
// process is removed and acquisition is retried once.
func Acquire(path string) (*LockFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	l, err := create(path)
	if err == nil {
		return l, nil
	}
	if !os.IsExist(err) {
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}
	if err := clearStale(path); err != nil {
		return nil, err
	}
	l, err = create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}
	return l, nil
}

func create(path string) (*LockFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write PID to lock file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to sync lock file: %w", err)
	}
	return &LockFile{path: path, file: f}, nil
}

// clearStale removes path when the PID it names is no longer running.
func clearStale(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("lock file exists but cannot be read: %s\nRemove it manually if no other instance is running: rm %s", path, path)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("lock file contains invalid PID: %s\nRemove it manually if corrupted: rm %s", path, path)
	}
	if processExists(pid) {
		return fmt.Errorf("%w (PID %d)\nWait for the other install to finish or remove the lock file if stale: %s", ErrHeld, pid, path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("stale lock file found (PID %d not running) but cannot be removed: %w\nRemove manually: rm %s", pid, err, path)
	}
	return nil
}

func processExists(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds, so check with signal 0
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	if errors.Is(err, syscall.ESRCH) || errors.Is(err, os.ErrProcessDone) {
		return false
	}
	// EPERM: exists but owned by someone else
	return true
}

// Release removes the lock file.
func (l *LockFile) Release() error {
	if l == nil {
		return nil
	}
	if l.file != nil {
		l.file.Close()
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

func (l *LockFile) Path() string {
	return l.path
}
