//go:build !windows

package store

import (
	"os"
	"syscall"
)

// processAlive probes a PID with signal 0, which does not affect the
// target process but fails if it no longer exists.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
