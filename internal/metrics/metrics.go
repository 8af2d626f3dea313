// Package metrics exposes the netcode core's Prometheus instrumentation:
// per-tick timing, reconciliation/rollback activity, lag-compensation
// rejections and snapshot-buffer occupancy, plus periodic process stats via
// gopsutil (grounded on the same shape as the eventbus's MetricsExporter
// and the HTTP middleware's PrometheusMiddleware).
package metrics

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/annel0/netcode-core/internal/logging"
)

// Registry bundles every metric the netcode core exports. cmd/server creates
// one Registry and sets ConnectedClients; the process-stats poller fills the
// process gauges. Neither Strategy takes a Registry, so the other metrics
// are registered but not updated.
type Registry struct {
	TickDuration       prometheus.Histogram
	TicksDropped       prometheus.Counter
	Reconciliations    prometheus.Counter
	Rollbacks          prometheus.Counter
	LagCompRejected    *prometheus.CounterVec
	SnapshotBufferSize prometheus.Gauge
	ConnectedClients   prometheus.Gauge
	ProcessCPUPercent  prometheus.Gauge
	ProcessRSSBytes    prometheus.Gauge

	quit chan struct{}
}

// NewRegistry creates and registers every metric under the given namespace
// (typically "netcode").
func NewRegistry(namespace string) *Registry {
	r := &Registry{
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock time spent simulating one game-loop tick.",
			Buckets:   []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2},
		}),
		TicksDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_dropped_total",
			Help:      "Ticks skipped because the previous tick was still running.",
		}),
		Reconciliations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_reconciliations_total",
			Help:      "Client-side reconciliation replays performed.",
		}),
		Rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollback_resimulations_total",
			Help:      "Rollback-client resimulations triggered by late remote input.",
		}),
		LagCompRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lag_compensation_rejected_total",
			Help:      "Actions rejected by the lag compensator, by reason.",
		}, []string{"reason"}),
		SnapshotBufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_buffer_occupancy",
			Help:      "Number of snapshots currently held in the server's history buffer.",
		}),
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Number of clients currently registered with the World Manager.",
		}),
		ProcessCPUPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_cpu_percent",
			Help:      "Process CPU usage percent, sampled via gopsutil.",
		}),
		ProcessRSSBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_rss_bytes",
			Help:      "Process resident set size in bytes, sampled via gopsutil.",
		}),
		quit: make(chan struct{}),
	}

	prometheus.MustRegister(
		r.TickDuration, r.TicksDropped, r.Reconciliations, r.Rollbacks,
		r.LagCompRejected, r.SnapshotBufferSize, r.ConnectedClients,
		r.ProcessCPUPercent, r.ProcessRSSBytes,
	)
	return r
}

// StartHTTP serves /metrics on addr and begins the process-stats poller.
func (r *Registry) StartHTTP(addr string) {
	go func() {
		logging.Info("metrics: /metrics listening on %s", addr)
		if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
			logging.Error("metrics: HTTP server error: %v", err)
		}
	}()
	go r.pollProcessStats()
}

func (r *Registry) pollProcessStats() {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logging.Warn("metrics: could not open self process handle: %v", err)
		return
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cpuPct, err := proc.CPUPercentWithContext(context.Background()); err == nil {
				r.ProcessCPUPercent.Set(cpuPct)
			}
			if memInfo, err := proc.MemInfoWithContext(context.Background()); err == nil && memInfo != nil {
				r.ProcessRSSBytes.Set(float64(memInfo.RSS))
			}
		case <-r.quit:
			return
		}
	}
}

// Stop halts the process-stats poller. The HTTP server keeps running.
func (r *Registry) Stop() { close(r.quit) }
