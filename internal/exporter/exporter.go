package exporter

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/datlevan/tnpipe/internal/observe"
	"github.com/datlevan/tnpipe/pkg/logging"
	"github.com/datlevan/tnpipe/pkg/models"
	"github.com/datlevan/tnpipe/pkg/store"
)

// Exporter serves Prometheus metrics for recorded pipeline launches.
// It samples live PIDs on a ticker and flips a launch to terminal state
// in the store when the process disappears.
type Exporter struct {
	store    store.Store
	logger   *logging.Logger
	interval time.Duration

	registry *prometheus.Registry

	up         *prometheus.GaugeVec
	cpuPercent *prometheus.GaugeVec
	rssBytes   *prometheus.GaugeVec
	uptime     *prometheus.GaugeVec
	exits      *prometheus.CounterVec

	mu       sync.Mutex
	observed map[string]bool // launch IDs already counted as exited
}

// New creates an exporter over the given launch store
func New(st store.Store, logger *logging.Logger, interval time.Duration) *Exporter {
	if logger == nil {
		logger = logging.NewLogger(logging.INFO, false)
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}

	e := &Exporter{
		store:    st,
		logger:   logger,
		interval: interval,
		registry: prometheus.NewRegistry(),
		observed: make(map[string]bool),
	}

	labels := []string{"launch_id", "pid"}
	e.up = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tnpipe_launch_up",
		Help: "1 if the launched pipeline process is alive",
	}, labels)
	e.cpuPercent = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tnpipe_launch_cpu_percent",
		Help: "CPU usage percent of the pipeline process",
	}, labels)
	e.rssBytes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tnpipe_launch_rss_bytes",
		Help: "Resident memory of the pipeline process in bytes",
	}, labels)
	e.uptime = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tnpipe_launch_uptime_seconds",
		Help: "Seconds since the pipeline process started",
	}, labels)
	e.exits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tnpipe_launch_exits_total",
		Help: "Launches observed to exit, by terminal state",
	}, []string{"state"})

	e.registry.MustRegister(e.up, e.cpuPercent, e.rssBytes, e.uptime, e.exits)
	return e
}

// Handler returns the HTTP handler serving /metrics and /healthz
func (e *Exporter) Handler() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	}).Methods("GET")
	return r
}

// Run samples launches until the context is cancelled
func (e *Exporter) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.Collect()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Collect()
		}
	}
}

// Collect refreshes gauges for all running launches once
func (e *Exporter) Collect() {
	launches, err := e.store.GetLaunches(models.LaunchStateRunning)
	if err != nil {
		e.logger.Error("Failed to list running launches", map[string]interface{}{"error": err.Error()})
		return
	}

	for _, l := range launches {
		e.collectLaunch(l)
	}
}

func (e *Exporter) collectLaunch(l *models.Launch) {
	labels := prometheus.Labels{
		"launch_id": l.ID,
		"pid":       strconv.Itoa(l.PID),
	}

	st, err := observe.Snapshot(l.PID)
	if err != nil {
		e.logger.Warn("Snapshot failed", map[string]interface{}{
			"launch_id": l.ID, "error": err.Error(),
		})
		return
	}

	if !st.Running {
		e.up.With(labels).Set(0)
		e.cpuPercent.With(labels).Set(0)
		e.rssBytes.With(labels).Set(0)
		e.uptime.With(labels).Set(0)
		e.markExited(l)
		return
	}

	e.up.With(labels).Set(1)
	e.cpuPercent.With(labels).Set(st.CPUPercent)
	e.rssBytes.With(labels).Set(float64(st.RSSBytes))
	e.uptime.With(labels).Set(st.Uptime().Seconds())
}

// markExited records the disappearance of a launch's process. The exit
// code of a detached child is unobtainable, so the reason is unknown.
func (e *Exporter) markExited(l *models.Launch) {
	e.mu.Lock()
	already := e.observed[l.ID]
	e.observed[l.ID] = true
	e.mu.Unlock()
	if already {
		return
	}

	if err := e.store.MarkExited(l.ID, -1, models.ExitReasonUnknown, ""); err != nil {
		e.logger.Warn("Failed to mark launch exited", map[string]interface{}{
			"launch_id": l.ID, "error": err.Error(),
		})
		return
	}

	e.exits.With(prometheus.Labels{"state": string(models.LaunchStateUnknown)}).Inc()
	e.logger.Info("Launch process gone", map[string]interface{}{
		"launch_id": l.ID, "pid": l.PID,
	})
}

