package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/datlevan/tnpipe/internal/supervise"
	"github.com/datlevan/tnpipe/pkg/models"
)

var stopKillAfter time.Duration

var stopCmd = &cobra.Command{
	Use:   "stop [launch-id]",
	Short: "Stop a launched pipeline",
	Long: `Stop terminates the pipeline of the latest launch (or the given
launch ID): SIGTERM first, SIGKILL after the grace period if it has not
exited. Signals go to the pipeline's process group so shell-wrapped
children go down with it.

Falls back to the legacy pipeline.pid file when no launch records exist.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)

	stopCmd.Flags().DurationVar(&stopKillAfter, "kill-after", 10*time.Second,
		"grace period before escalating SIGTERM to SIGKILL")
}

func runStop(cmd *cobra.Command, args []string) error {
	l, err := resolveLaunch(args)
	if err != nil {
		return err
	}
	if l.State.IsTerminal() {
		return fmt.Errorf("launch %s already %s", l.ID, l.State)
	}

	logger := newLogger()
	logger.Info("Stopping pipeline", map[string]interface{}{
		"launch_id": l.ID, "pid": l.PID, "grace": stopKillAfter.String(),
	})

	res, err := supervise.Stop(l.PID, stopKillAfter)
	if err != nil {
		return err
	}

	if st, serr := openStore(); serr == nil {
		st.MarkExited(l.ID, -1, models.ExitReasonSignal, "")
		st.Close()
	}

	if res.Forced {
		fmt.Printf("Pipeline %d did not exit within %s, killed\n", res.PID, stopKillAfter)
	} else {
		fmt.Printf("Pipeline %d stopped\n", res.PID)
	}
	return nil
}
