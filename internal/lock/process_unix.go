//go:build !windows

package lock

import (
	"errors"
	"os"
	"syscall"
)

// processExists checks if a process with the given PID exists
func processExists(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds; signal 0 probes liveness
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM means the process exists but is owned by someone else
	if errors.Is(err, syscall.EPERM) {
		return true
	}
	return false
}
