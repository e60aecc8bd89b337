package launcher

// The launcher never owns the pipeline. It starts the process, records
// where it went, and gets out of the way. No retries. No restarts.

import (
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/datlevan/tnpipe/pkg/models"
)

// Options controls a single background launch
type Options struct {
	Program   string   // executable to run (e.g. "python3")
	Args      []string // arguments (e.g. ["run_tay_nguyen_pipeline.py"])
	Workdir   string   // working directory for the child ("" = inherit)
	LogDir    string   // directory for the pipeline log ("" = cwd)
	LogPrefix string   // log name prefix ("" = pipeline_output_)
	PIDFile   string   // legacy pid file path ("" = pipeline.pid)
}

// Launch spawns the pipeline program detached from the controlling
// terminal, with stdout and stderr redirected to a freshly created
// timestamped log file and stdin on the null device.
//
// The child is started in its own session (Setsid), so closing the
// terminal or killing the launcher does not terminate it. Launch returns
// as soon as the spawn succeeds; nothing validates that the child keeps
// running afterwards. A spawn failure (program missing, not executable)
// is the only error surfaced.
func Launch(opts Options) (*models.Launch, error) {
	if opts.Program == "" {
		return nil, fmt.Errorf("no program configured")
	}

	startedAt := time.Now()

	logFile, logPath, err := CreateLogFile(opts.LogDir, opts.LogPrefix, startedAt)
	if err != nil {
		return nil, err
	}
	defer logFile.Close()

	cmd := exec.Command(opts.Program, opts.Args...)
	cmd.Dir = opts.Workdir

	// New session: detach from the controlling terminal so the pipeline
	// survives terminal closure and launcher exit
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	// Combined stdout+stderr into one log, in the order the child
	// produces them. Stdin nil = null device, no interactive input.
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start pipeline: %w", err)
	}

	pid := cmd.Process.Pid

	// Sequenced strictly after the spawn: pid file first, then the record
	if err := WritePIDFile(opts.PIDFile, pid); err != nil {
		// The child is already running; report but do not kill it
		return nil, fmt.Errorf("pipeline started (pid %d) but pid file write failed: %w", pid, err)
	}

	// Fire-and-forget: release the process handle so no wait is owed
	cmd.Process.Release()

	return &models.Launch{
		ID:        models.NewLaunchID(startedAt, pid),
		PID:       pid,
		Program:   opts.Program,
		Args:      opts.Args,
		Workdir:   opts.Workdir,
		LogPath:   logPath,
		State:     models.LaunchStateRunning,
		StartedAt: startedAt,
	}, nil
}

// WriteReport prints the operator-facing status lines for a launch:
// where the log is, the pid, and how to follow or stop the pipeline.
func WriteReport(out io.Writer, l *models.Launch, pidFile string) {
	if pidFile == "" {
		pidFile = DefaultPIDFile
	}
	fmt.Fprintf(out, "Pipeline started in background\n")
	fmt.Fprintf(out, "  Launch ID: %s\n", l.ID)
	fmt.Fprintf(out, "  PID:       %d (recorded in %s)\n", l.PID, pidFile)
	fmt.Fprintf(out, "  Log file:  %s\n", l.LogPath)
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "Follow the log:    tail -f %s\n", l.LogPath)
	fmt.Fprintf(out, "Stop the pipeline: tnpipe stop   (or: kill $(cat %s))\n", pidFile)
}
