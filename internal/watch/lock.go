package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

var (
	// ErrAlreadyRunning is returned when another watcher holds the pid file lock.
	ErrAlreadyRunning = errors.New("watcher already running")
	// ErrNotRunning is returned by Stop when no watcher holds the lock.
	ErrNotRunning = errors.New("watcher not running")
)

// PidLock is the single-instance guard for the watcher.
type PidLock struct {
	path string
	lock *flock.Flock
}

// AcquirePidLock locks path and writes the current pid into it.
func AcquirePidLock(path string) (*PidLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create pid directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		if pid, readErr := ReadPID(path); readErr == nil {
			return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
		}
		return nil, ErrAlreadyRunning
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("write pid file: %w", err)
	}
	return &PidLock{path: path, lock: lock}, nil
}

// Path returns the pid file location.
func (l *PidLock) Path() string { return l.path }

// Release removes the pid file and drops the lock.
func (l *PidLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = l.lock.Unlock()
		return fmt.Errorf("remove pid file: %w", err)
	}
	return l.lock.Unlock()
}

// ReadPID parses the pid stored at path.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s holds no valid pid", path)
	}
	return pid, nil
}

// Running reports whether a watcher currently holds the lock at path, and its pid.
func Running(path string) (int, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	probe := flock.New(path)
	ok, err := probe.TryLock()
	if err != nil {
		return 0, false, fmt.Errorf("probe lock: %w", err)
	}
	if ok {
		_ = probe.Unlock()
		return 0, false, nil
	}
	pid, err := ReadPID(path)
	if err != nil {
		return 0, true, err
	}
	return pid, true, nil
}

// Stop sends SIGTERM to the watcher recorded at path and returns its pid.
// A stale pid file left by a crashed watcher is removed.
func Stop(path string) (int, error) {
	pid, running, err := Running(path)
	if err != nil {
		return 0, err
	}
	if !running {
		if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			return 0, fmt.Errorf("remove stale pid file: %w", removeErr)
		}
		return 0, ErrNotRunning
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return 0, fmt.Errorf("signal watcher %d: %w", pid, err)
	}
	return pid, nil
}
