package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/datlevan/tnpipe/internal/supervise"
	"github.com/datlevan/tnpipe/pkg/models"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded pipeline launches",
	Long: `List shows recorded launches, newest first. By default only
launches still marked running are shown; --all includes finished ones.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "include finished launches")
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var launches []*models.Launch
	if listAll {
		launches, err = st.GetAllLaunches()
	} else {
		launches, err = st.GetLaunches(models.LaunchStateRunning)
	}
	if err != nil {
		return err
	}

	// Records can go stale between invocations; probe liveness here so
	// the listing reflects reality
	for _, l := range launches {
		if l.State == models.LaunchStateRunning && !supervise.PIDExists(l.PID) {
			st.MarkExited(l.ID, -1, models.ExitReasonUnknown, "")
			l.State = models.LaunchStateUnknown
		}
	}

	if IsJSONOutput() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(launches)
	}

	if len(launches) == 0 {
		fmt.Println("No launches recorded")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Launch ID", "PID", "State", "Started", "Duration", "Log")

	for _, l := range launches {
		table.Append(
			l.ID,
			fmt.Sprintf("%d", l.PID),
			string(l.State),
			l.StartedAt.Format(time.RFC3339),
			formatDuration(l.Duration()),
			l.LogPath,
		)
	}
	table.Render()
	return nil
}
