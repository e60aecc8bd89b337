package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/datlevan/tnpipe/internal/launcher"
	"github.com/datlevan/tnpipe/internal/observe"
	"github.com/datlevan/tnpipe/pkg/models"
	"github.com/datlevan/tnpipe/pkg/store"
)

var statusCmd = &cobra.Command{
	Use:   "status [launch-id]",
	Short: "Show status of the latest (or a specific) launch",
	Long: `Status probes the recorded launch and reports liveness and resource
usage (CPU, resident memory, uptime). Without an argument it inspects the
most recent launch; with one, the given launch ID.

Falls back to the legacy pipeline.pid file when no launch records exist.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type launchStatus struct {
	Launch *models.Launch `json:"launch"`
	Stats  *observe.Stats `json:"stats"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	l, err := resolveLaunch(args)
	if err != nil {
		return err
	}

	stats, err := observe.Snapshot(l.PID)
	if err != nil {
		return err
	}

	// Reconcile record with reality: a recorded-running launch whose
	// process is gone gets marked exited (reason unknowable from here)
	if l.State == models.LaunchStateRunning && !stats.Running {
		if st, err := openStore(); err == nil {
			st.MarkExited(l.ID, -1, models.ExitReasonUnknown, "")
			if updated, err2 := st.GetLaunch(l.ID); err2 == nil {
				l = updated
			}
			st.Close()
		}
	}

	if IsJSONOutput() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(launchStatus{Launch: l, Stats: stats})
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")

	table.Append("Launch ID", l.ID)
	table.Append("PID", fmt.Sprintf("%d", l.PID))
	table.Append("State", string(l.State))
	table.Append("Program", l.Program)
	table.Append("Log file", l.LogPath)
	if !l.StartedAt.IsZero() {
		table.Append("Started", l.StartedAt.Format(time.RFC3339))
		table.Append("Duration", formatDuration(l.Duration()))
	}
	if stats.Running {
		table.Append("CPU %", fmt.Sprintf("%.1f", stats.CPUPercent))
		table.Append("RSS", formatBytes(stats.RSSBytes))
	} else {
		table.Append("Exit reason", string(l.ExitReason))
		if l.ExitCode != 0 {
			table.Append("Exit code", fmt.Sprintf("%d", l.ExitCode))
		}
	}
	table.Render()
	return nil
}

// resolveLaunch finds the launch to inspect: explicit ID, latest record,
// or the legacy pid file as a final fallback.
func resolveLaunch(args []string) (*models.Launch, error) {
	st, err := openStore()
	if err == nil {
		defer st.Close()

		if len(args) == 1 {
			return st.GetLaunch(args[0])
		}
		if l, err := st.GetLatestLaunch(); err == nil {
			return l, nil
		} else if err != store.ErrLaunchNotFound {
			return nil, err
		}
	} else if len(args) == 1 {
		return nil, err
	}

	pid, err := launcher.ReadPIDFile("")
	if err != nil {
		return nil, fmt.Errorf("no launches recorded and no readable pid file: %w", err)
	}
	return &models.Launch{
		ID:    "pidfile",
		PID:   pid,
		State: models.LaunchStateUnknown,
	}, nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return d.String()
	}
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	return fmt.Sprintf("%dm%ds", m, s)
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
