package supervise

// If the supervisor crashes, the pipeline MUST continue.
// The supervisor observes and reports; it never restarts the workload.

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/datlevan/tnpipe/internal/launcher"
	"github.com/datlevan/tnpipe/pkg/logging"
	"github.com/datlevan/tnpipe/pkg/models"
)

// Supervisor runs the pipeline in the foreground, waits for it and
// classifies the exit. The child still gets its own process group so it
// survives a supervisor crash; only an explicit stop signals it.
type Supervisor struct {
	opts   launcher.Options
	logger *logging.Logger

	mu         sync.Mutex
	pid        int
	cmd        *exec.Cmd
	startTime  time.Time
	events     []models.LifecycleEvent
	exitCode   int
	exitReason models.ExitReason
}

// New creates a supervisor for the given launch options
func New(opts launcher.Options, logger *logging.Logger) *Supervisor {
	if logger == nil {
		logger = logging.NewLogger(logging.INFO, false)
	}
	return &Supervisor{
		opts:     opts,
		logger:   logger,
		exitCode: -1,
	}
}

// Run spawns the pipeline and blocks until it exits. The child's
// stdout/stderr still go to the timestamped log file, exactly as in
// background mode; only the waiting differs.
func (s *Supervisor) Run() error {
	startedAt := time.Now()

	logFile, logPath, err := launcher.CreateLogFile(s.opts.LogDir, s.opts.LogPrefix, startedAt)
	if err != nil {
		return err
	}
	defer logFile.Close()

	cmd := exec.Command(s.opts.Program, s.opts.Args...)
	cmd.Dir = s.opts.Workdir

	// Own process group: the pipeline survives a supervisor crash
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}

	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil

	s.emitEvent(models.LaunchStateStarting, "Spawning pipeline process")

	if err := cmd.Start(); err != nil {
		s.emitEvent(models.LaunchStateFailed, fmt.Sprintf("Failed to start: %v", err))
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.pid = cmd.Process.Pid
	s.startTime = startedAt
	s.mu.Unlock()

	if err := launcher.WritePIDFile(s.opts.PIDFile, s.pid); err != nil {
		s.logger.Warn("Failed to write pid file", map[string]interface{}{"error": err.Error()})
	}

	s.logger.Info("Pipeline started", map[string]interface{}{
		"pid": s.pid,
		"log": logPath,
	})
	s.emitEvent(models.LaunchStateRunning, fmt.Sprintf("PID %d started", s.pid))

	return s.wait()
}

// wait blocks on the child and classifies its exit
func (s *Supervisor) wait() error {
	err := s.cmd.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			s.exitCode = exitErr.ExitCode()

			reason, state, message := classifyExitStatus(s.exitCode, exitErr.Sys())
			s.exitReason = reason
			s.emitEventLocked(state, message)
		} else {
			s.exitCode = 1
			s.exitReason = models.ExitReasonError
			s.emitEventLocked(models.LaunchStateFailed, fmt.Sprintf("Wait error: %v", err))
		}
	} else {
		s.exitCode = 0
		s.exitReason = models.ExitReasonSuccess
		s.emitEventLocked(models.LaunchStateCompleted, "Completed successfully")
	}

	s.logger.Info("Pipeline exited", map[string]interface{}{
		"exit_code":   s.exitCode,
		"exit_reason": string(s.exitReason),
		"duration_s":  time.Since(s.startTime).Seconds(),
	})

	return nil
}

// PID returns the child PID (0 before start)
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pid
}

// ExitCode returns the recorded exit code (-1 before exit)
func (s *Supervisor) ExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode
}

// ExitReason returns the classified exit reason
func (s *Supervisor) ExitReason() models.ExitReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitReason
}

// Events returns all recorded lifecycle events
func (s *Supervisor) Events() []models.LifecycleEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LifecycleEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Duration returns how long the pipeline has been running
func (s *Supervisor) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

// WriteReport writes a summary report to the given writer
func (s *Supervisor) WriteReport(out io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(out, "=== Pipeline Run Report ===\n")
	fmt.Fprintf(out, "Program: %s\n", s.opts.Program)
	fmt.Fprintf(out, "PID: %d\n", s.pid)
	fmt.Fprintf(out, "Duration: %.2fs\n", time.Since(s.startTime).Seconds())
	fmt.Fprintf(out, "Exit Code: %d\n", s.exitCode)
	fmt.Fprintf(out, "Exit Reason: %s\n", s.exitReason)
	fmt.Fprintf(out, "\nLifecycle Events:\n")
	for _, event := range s.events {
		fmt.Fprintf(out, "  [%s] %s: %s\n",
			event.Timestamp.Format("15:04:05"), event.State, event.Message)
	}
	return nil
}

func (s *Supervisor) emitEvent(state models.LaunchState, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitEventLocked(state, message)
}

func (s *Supervisor) emitEventLocked(state models.LaunchState, message string) {
	s.events = append(s.events, models.LifecycleEvent{
		PID:        s.pid,
		State:      state,
		Timestamp:  time.Now(),
		Message:    message,
		ExitCode:   s.exitCode,
		ExitReason: s.exitReason,
	})
}
