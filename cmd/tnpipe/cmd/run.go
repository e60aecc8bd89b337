package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/datlevan/tnpipe/internal/supervise"
)

var (
	runWorkdir string
	runLogDir  string
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [-- <command> [args...]]",
	Short: "Run the pipeline supervised in the foreground",
	Long: `Run spawns the pipeline and waits for it, classifying the exit
(success, error, signal) and printing a lifecycle report. The pipeline
still runs in its own process group and still logs to the timestamped
log file, so a supervisor crash leaves it running.

SIGINT or SIGTERM to tnpipe detaches from the pipeline; it does NOT stop
the pipeline. Use 'tnpipe stop' for that.

  tnpipe run
  tnpipe run -- python3 run_tay_nguyen_pipeline.py`,
	RunE: runSupervised,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runWorkdir, "workdir", "", "working directory for the pipeline")
	runCmd.Flags().StringVar(&runLogDir, "log-dir", "", "directory for the pipeline log file")
}

func runSupervised(cmd *cobra.Command, args []string) error {
	opts := launchOptions()
	if len(args) > 0 {
		opts.Program = args[0]
		opts.Args = args[1:]
	}
	if runWorkdir != "" {
		opts.Workdir = runWorkdir
	}
	if runLogDir != "" {
		opts.LogDir = runLogDir
	}

	logger := newLogger()
	s := supervise.New(opts, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\nDetaching, pipeline continues (pid %d). Stop it with: tnpipe stop\n", s.PID())
		os.Exit(0)
	}()

	if err := s.Run(); err != nil {
		return err
	}

	if IsJSONOutput() {
		report := map[string]interface{}{
			"pid":          s.PID(),
			"exit_code":    s.ExitCode(),
			"exit_reason":  string(s.ExitReason()),
			"duration_sec": s.Duration().Seconds(),
			"events":       s.Events(),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	return s.WriteReport(os.Stdout)
}
