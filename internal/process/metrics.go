package process

import "github.com/prometheus/client_golang/prometheus"

var (
	processRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parallel_process_runs_total",
			Help: "Total number of synced child processes by outcome.",
		},
		[]string{"outcome"},
	)

	processRunSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "parallel_process_run_seconds",
			Help:    "Wall time of child processes from start to exit.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		},
	)

	processSpawnFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parallel_process_spawn_failures_total",
			Help: "Total number of child processes the OS refused to start.",
		},
	)
)

func init() {
	prometheus.MustRegister(processRunsTotal)
	prometheus.MustRegister(processRunSeconds)
	prometheus.MustRegister(processSpawnFailures)
}
