package workflow

import "github.com/prometheus/client_golang/prometheus"

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verdant_workflow_runs_total",
			Help: "Diagnosis runs by outcome.",
		},
		[]string{"outcome"},
	)
	failuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verdant_workflow_failures_total",
			Help: "Failed diagnosis runs by error category.",
		},
		[]string{"category"},
	)
	stepSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "verdant_workflow_step_seconds",
			Help:    "Step duration in seconds.",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"step", "status"},
	)
)

func init() {
	prometheus.MustRegister(runsTotal, failuresTotal, stepSeconds)
}
