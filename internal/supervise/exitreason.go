package supervise

import (
	"fmt"
	"syscall"

	"github.com/datlevan/tnpipe/pkg/models"
)

// classifyExitStatus maps a non-zero wait result to its exit reason,
// terminal state and event message. Sys() yields something other than a
// WaitStatus only on platforms we do not run on; that still gets a
// defined reason instead of an empty one.
func classifyExitStatus(exitCode int, sys interface{}) (models.ExitReason, models.LaunchState, string) {
	status, ok := sys.(syscall.WaitStatus)
	if !ok {
		return models.ExitReasonUnknown, models.LaunchStateFailed,
			fmt.Sprintf("Exited with code %d", exitCode)
	}

	reason := DetermineExitReason(exitCode, status)
	if status.Signaled() {
		return reason, models.LaunchStateKilled,
			fmt.Sprintf("Killed by %s", SignalName(status.Signal()))
	}
	return reason, models.LaunchStateFailed,
		fmt.Sprintf("Exited with code %d", exitCode)
}

// DetermineExitReason analyzes process exit to determine the reason
func DetermineExitReason(exitCode int, waitStatus syscall.WaitStatus) models.ExitReason {
	if waitStatus.Exited() {
		if exitCode == 0 {
			return models.ExitReasonSuccess
		}

		// 137/143 usually mean the OOM killer or an external SIGKILL/SIGTERM
		// propagated through a shell
		if exitCode == 137 || exitCode == 143 {
			return models.ExitReasonOOM
		}

		return models.ExitReasonError
	}

	if waitStatus.Signaled() {
		return models.ExitReasonSignal
	}

	return models.ExitReasonUnknown
}

// SignalName returns the signal name for a signal number
func SignalName(sig syscall.Signal) string {
	switch sig {
	case syscall.SIGKILL:
		return "SIGKILL"
	case syscall.SIGTERM:
		return "SIGTERM"
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGHUP:
		return "SIGHUP"
	case syscall.SIGQUIT:
		return "SIGQUIT"
	case syscall.SIGABRT:
		return "SIGABRT"
	case syscall.SIGSEGV:
		return "SIGSEGV"
	case syscall.SIGPIPE:
		return "SIGPIPE"
	default:
		return sig.String()
	}
}
