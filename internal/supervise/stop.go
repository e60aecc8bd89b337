package supervise

import (
	"fmt"
	"syscall"
	"time"
)

// StopResult reports how a stop played out
type StopResult struct {
	PID      int
	Graceful bool // true if SIGTERM was enough
	Forced   bool // true if SIGKILL was needed
}

// Stop terminates a launched pipeline: SIGTERM first, then SIGKILL if
// the process is still alive after the grace period. Signals go to the
// process group when the child leads one, so shell-wrapped pipelines
// take their subprocesses down with them.
func Stop(pid int, grace time.Duration) (*StopResult, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("invalid pid: %d", pid)
	}
	if !PIDExists(pid) {
		return nil, fmt.Errorf("process %d does not exist", pid)
	}

	res := &StopResult{PID: pid}

	signalGroup(pid, syscall.SIGTERM)

	deadline := time.Now().Add(grace)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		<-ticker.C
		if !PIDExists(pid) {
			res.Graceful = true
			return res, nil
		}
	}

	// Still alive after the grace period
	signalGroup(pid, syscall.SIGKILL)
	res.Forced = true

	// SIGKILL is not ignorable; give the kernel a moment to reap
	for i := 0; i < 20; i++ {
		if !PIDExists(pid) {
			return res, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return res, fmt.Errorf("process %d still alive after SIGKILL", pid)
}

// signalGroup signals the whole process group if pid leads one,
// falling back to the single process.
func signalGroup(pid int, sig syscall.Signal) {
	pgid, err := syscall.Getpgid(pid)
	if err == nil && pgid == pid {
		if syscall.Kill(-pgid, sig) == nil {
			return
		}
	}
	syscall.Kill(pid, sig)
}
