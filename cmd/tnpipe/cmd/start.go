package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datlevan/tnpipe/internal/launcher"
)

var (
	startWorkdir string
	startLogDir  string
)

var startCmd = &cobra.Command{
	Use:   "start [flags] [-- <command> [args...]]",
	Short: "Start the pipeline in the background",
	Long: `Start spawns the pipeline program detached from the terminal. The
process survives terminal closure and launcher exit. Its stdout and stderr
are combined into a timestamped log file; its PID goes into the pid file
and the launch store.

Start is fire-and-forget: it returns as soon as the spawn is accepted and
never waits for, restarts, or validates the pipeline afterwards.

By default it launches the configured pipeline command
(python3 run_tay_nguyen_pipeline.py). An explicit command overrides it:

  tnpipe start
  tnpipe start -- python3 run_tay_nguyen_pipeline.py
  tnpipe start --workdir /data/tay-nguyen -- python3 ndvi_retrieval.py`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().StringVar(&startWorkdir, "workdir", "", "working directory for the pipeline")
	startCmd.Flags().StringVar(&startLogDir, "log-dir", "", "directory for the pipeline log file")
}

func runStart(cmd *cobra.Command, args []string) error {
	opts := launchOptions()
	if len(args) > 0 {
		opts.Program = args[0]
		opts.Args = args[1:]
	}
	if startWorkdir != "" {
		opts.Workdir = startWorkdir
	}
	if startLogDir != "" {
		opts.LogDir = startLogDir
	}

	l, err := launcher.Launch(opts)
	if err != nil {
		return err
	}

	// Best effort: a broken store must not kill a launch that already
	// happened, the pid file still points at the child
	st, err := openStore()
	if err != nil {
		newLogger().Warn("Launch record not persisted", map[string]interface{}{"error": err.Error()})
	} else {
		defer st.Close()
		if err := st.CreateLaunch(l); err != nil {
			newLogger().Warn("Launch record not persisted", map[string]interface{}{"error": err.Error()})
		}
	}

	if IsJSONOutput() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(l)
	}

	launcher.WriteReport(os.Stdout, l, opts.PIDFile)
	fmt.Fprintf(os.Stdout, "Check status:      tnpipe status\n")
	return nil
}
