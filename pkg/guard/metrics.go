package guard

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	callHTTPGet = "http_get"

	resultAvailable   = "available"
	resultUnavailable = "unavailable"
)

var (
	callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verdant_guard_calls_total",
			Help: "Total number of guarded network calls by result.",
		},
		[]string{"call", "result"},
	)

	attemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verdant_guard_attempts_total",
			Help: "Total number of attempts made by guarded network calls.",
		},
		[]string{"call"},
	)

	localTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verdant_guard_local_total",
			Help: "Total number of local computations by outcome.",
		},
		[]string{"outcome"},
	)

	localDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "verdant_guard_local_seconds",
			Help:    "Wall-clock duration of local computations, in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		},
	)
)

func init() {
	prometheus.MustRegister(callsTotal)
	prometheus.MustRegister(attemptsTotal)
	prometheus.MustRegister(localTotal)
	prometheus.MustRegister(localDuration)

	callsTotal.WithLabelValues(callHTTPGet, resultAvailable)
	callsTotal.WithLabelValues(callHTTPGet, resultUnavailable)
	for _, o := range []LocalOutcome{LocalCompleted, LocalFailed, LocalTimedOut} {
		localTotal.WithLabelValues(o.String())
	}
}

func recordCall(call string, attempts int, available bool) {
	result := resultUnavailable
	if available {
		result = resultAvailable
	}
	callsTotal.WithLabelValues(call, result).Inc()
	attemptsTotal.WithLabelValues(call).Add(float64(attempts))
}

func recordLocal(outcome LocalOutcome, elapsed time.Duration) {
	localTotal.WithLabelValues(outcome.String()).Inc()
	localDuration.Observe(elapsed.Seconds())
}
