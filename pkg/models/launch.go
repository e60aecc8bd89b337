package models

import (
	"fmt"
	"time"
)

// LaunchState represents the lifecycle state of a launched pipeline process
type LaunchState string

const (
	LaunchStateStarting  LaunchState = "starting"
	LaunchStateRunning   LaunchState = "running"
	LaunchStateCompleted LaunchState = "completed"
	LaunchStateFailed    LaunchState = "failed"
	LaunchStateKilled    LaunchState = "killed"
	LaunchStateUnknown   LaunchState = "unknown"
)

// ExitReason describes why a launched process terminated
type ExitReason string

const (
	ExitReasonSuccess ExitReason = "success" // Exit code 0
	ExitReasonError   ExitReason = "error"   // Exit code != 0
	ExitReasonSignal  ExitReason = "signal"  // Killed by signal
	ExitReasonOOM     ExitReason = "oom"     // Out of memory killed
	ExitReasonUnknown ExitReason = "unknown"
)

// Launch is the record of one pipeline launch. It replaces the single-slot
// pid file as the source of truth: every launch gets its own record, so
// multiple pipelines can run side by side without clobbering each other.
// The legacy pid file is still written for operators using plain kill(1).
type Launch struct {
	ID        string      `json:"id"`
	PID       int         `json:"pid"`
	Program   string      `json:"program"`
	Args      []string    `json:"args,omitempty"`
	Workdir   string      `json:"workdir,omitempty"`
	LogPath   string      `json:"log_path"`
	State     LaunchState `json:"state"`
	StartedAt time.Time   `json:"started_at"`
	StoppedAt *time.Time  `json:"stopped_at,omitempty"`
	ExitCode  int         `json:"exit_code"`
	ExitReason ExitReason `json:"exit_reason,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// NewLaunchID builds a launch identifier from the start time and PID.
// Second-resolution timestamps can collide; the PID disambiguates.
func NewLaunchID(startedAt time.Time, pid int) string {
	return fmt.Sprintf("launch-%s-%d", startedAt.Format("20060102-150405"), pid)
}

// IsTerminal reports whether the state is final
func (s LaunchState) IsTerminal() bool {
	switch s {
	case LaunchStateCompleted, LaunchStateFailed, LaunchStateKilled:
		return true
	}
	return false
}

// Duration returns how long the launch has been (or was) running
func (l *Launch) Duration() time.Duration {
	if l.StoppedAt != nil {
		return l.StoppedAt.Sub(l.StartedAt)
	}
	return time.Since(l.StartedAt)
}

// LifecycleEvent represents a state change observed for a launch
type LifecycleEvent struct {
	PID        int         `json:"pid"`
	State      LaunchState `json:"state"`
	Timestamp  time.Time   `json:"timestamp"`
	ExitCode   int         `json:"exit_code,omitempty"`
	ExitReason ExitReason  `json:"exit_reason,omitempty"`
	Message    string      `json:"message,omitempty"`
}
