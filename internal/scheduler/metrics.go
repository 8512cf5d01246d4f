package scheduler

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffing",
			Subsystem: "scheduler",
			Name:      "transitions_total",
			Help:      "Total number of assignments moved to the next state by a pass.",
		}, []string{"pass"}),
		failures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffing",
			Subsystem: "scheduler",
			Name:      "failures_total",
			Help:      "Total number of assignments a pass failed to process.",
		}, []string{"pass"}),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "staffing",
			Subsystem: "scheduler",
			Name:      "pass_duration_seconds",
			Help:      "Duration of one scheduler pass.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"pass"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
