package daemon

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/1broseidon/edgeseek/internal/runtimepath"
)

// ErrNotRunning is returned when no live daemon owns the pid file.
var ErrNotRunning = errors.New("edgeseek daemon is not running")

// WritePidFile records the current process at path. It fails when another
// live process already owns the file.
func WritePidFile(path string) error {
	if pid, err := ReadPidFile(path); err == nil {
		return fmt.Errorf("daemon already running with pid %d", pid)
	}
	data := []byte(strconv.Itoa(os.Getpid()) + "\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// RemovePidFile deletes path if it still names this process.
func RemovePidFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if strings.TrimSpace(string(data)) == strconv.Itoa(os.Getpid()) {
		_ = os.Remove(path)
	}
}

// ReadPidFile returns the pid stored at path if that process is alive.
func ReadPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotRunning
		}
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("malformed pid file %s: %w", path, ErrNotRunning)
	}
	if err := syscall.Kill(pid, 0); err != nil && !errors.Is(err, syscall.EPERM) {
		return 0, fmt.Errorf("stale pid %d: %w", pid, ErrNotRunning)
	}
	return pid, nil
}

// RunningPid returns the pid of the running daemon.
func RunningPid() (int, error) {
	path, err := runtimepath.PidPath()
	if err != nil {
		return 0, err
	}
	return ReadPidFile(path)
}

// Signal sends sig to the running daemon.
func Signal(sig syscall.Signal) (int, error) {
	pid, err := RunningPid()
	if err != nil {
		return 0, err
	}
	if err := syscall.Kill(pid, sig); err != nil {
		return pid, fmt.Errorf("signal pid %d: %w", pid, err)
	}
	return pid, nil
}
