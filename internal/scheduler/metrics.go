package scheduler

import "github.com/prometheus/client_golang/prometheus"

var (
	schedulerRunningProcesses = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parallel_scheduler_running_processes",
			Help: "Number of processes currently running.",
		},
	)

	schedulerHeldHandles = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parallel_scheduler_held_handles",
			Help: "Number of processes held by the scheduler, running or not.",
		},
	)

	schedulerEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parallel_scheduler_events_total",
			Help: "Total number of scheduler events emitted.",
		},
		[]string{"event"},
	)
)

func init() {
	prometheus.MustRegister(schedulerRunningProcesses)
	prometheus.MustRegister(schedulerHeldHandles)
	prometheus.MustRegister(schedulerEventsTotal)
}
