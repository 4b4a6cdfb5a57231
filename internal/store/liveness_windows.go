//go:build windows

package store

import "os"

// processAlive probes a PID by attempting to open a handle to it; Windows
// has no signal-0 equivalent, so a successful FindProcess is taken as
// "alive".
func processAlive(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}
