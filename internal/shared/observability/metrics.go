package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evmc_phase_seconds",
		Help:    "Time spent in one compiler phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evmc_diagnostics_total",
		Help: "Diagnostics reported, by severity.",
	}, []string{"severity"})

	ArtifactsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evmc_artifacts_total",
		Help: "Output artifacts attempted, by kind and result (written or failed).",
	}, []string{"kind", "result"})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evmc_runs_total",
		Help: "Compiler runs, by exit code.",
	}, []string{"exit_code"})

	ProvidersCompiled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evmc_providers",
		Help: "Number of providers in the last compiled manifest.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evmc_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)

// WriteTextfile writes the default registry in Prometheus text format, for
// node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
