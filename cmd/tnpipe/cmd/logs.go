package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/datlevan/tnpipe/internal/supervise"
)

var logsFollow bool

var logsCmd = &cobra.Command{
	Use:   "logs [launch-id]",
	Short: "Print the pipeline log of a launch",
	Long: `Logs prints the captured pipeline output of the latest launch (or
the given launch ID). With --follow it keeps polling the file for new
output until the pipeline exits and its final output has been drained,
or until interrupted, like tail -f.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogs,
}

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "keep printing new output")
}

func runLogs(cmd *cobra.Command, args []string) error {
	l, err := resolveLaunch(args)
	if err != nil {
		return err
	}
	if l.LogPath == "" {
		return fmt.Errorf("launch %s has no recorded log file", l.ID)
	}

	f, err := os.Open(l.LogPath)
	if err != nil {
		return fmt.Errorf("cannot open log file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(os.Stdout, f); err != nil {
		return err
	}
	if !logsFollow {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	return supervise.FollowLog(ctx, os.Stdout, f, func() bool {
		return supervise.PIDExists(l.PID)
	}, 500*time.Millisecond)
}
