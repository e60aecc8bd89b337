package supervise

import (
	"context"
	"os"
	"syscall"
	"time"
)

// Watcher observes PID lifecycle. Nothing else.
type Watcher struct {
	pid       int
	interval  time.Duration
	startTime time.Time
}

// NewWatcher creates a watcher for a PID
func NewWatcher(pid int) *Watcher {
	return &Watcher{
		pid:       pid,
		interval:  time.Second,
		startTime: time.Now(),
	}
}

// Exists checks if the PID still exists
func (w *Watcher) Exists() bool {
	return PIDExists(w.pid)
}

// Wait blocks until the PID exits or the context is cancelled.
// Passive observation only; no exit code is available for a process
// we did not spawn.
func (w *Watcher) Wait(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !w.Exists() {
				return nil
			}
		}
	}
}

// Duration returns how long we've been observing
func (w *Watcher) Duration() time.Duration {
	return time.Since(w.startTime)
}

// PIDExists checks if a process exists by sending signal 0
func PIDExists(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	return err == nil
}
