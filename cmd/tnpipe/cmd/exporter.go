package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/datlevan/tnpipe/internal/exporter"
	"github.com/datlevan/tnpipe/pkg/shutdown"
)

var (
	exporterListen   string
	exporterInterval time.Duration
)

var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Serve Prometheus metrics for recorded launches",
	Long: `Exporter runs an HTTP endpoint exposing per-launch gauges (up,
CPU percent, resident memory, uptime) sampled from the processes of
recorded launches. Runs until SIGINT/SIGTERM.

  tnpipe exporter --listen :9464`,
	RunE: runExporter,
}

func init() {
	rootCmd.AddCommand(exporterCmd)

	exporterCmd.Flags().StringVar(&exporterListen, "listen", ":9464", "listen address for /metrics")
	exporterCmd.Flags().DurationVar(&exporterInterval, "interval", 5*time.Second, "sampling interval")
}

func runExporter(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	logger := newLogger()
	e := exporter.New(st, logger, exporterInterval)

	srv := &http.Server{
		Addr:    exporterListen,
		Handler: e.Handler(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Exporter listening", map[string]interface{}{"addr": exporterListen})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	mgr := shutdown.New(15 * time.Second)
	mgr.Register(shutdown.CloseResource(st, "launch store"))
	mgr.Register(shutdown.StopHTTPServer(srv, "exporter"))
	mgr.Register(func(context.Context) error {
		cancel()
		return nil
	})

	done := make(chan struct{})
	go func() {
		mgr.Wait()
		close(done)
	}()

	select {
	case err := <-errChan:
		mgr.Shutdown()
		return fmt.Errorf("exporter server failed: %w", err)
	case <-done:
		return nil
	}
}
