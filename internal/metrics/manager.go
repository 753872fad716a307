// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests          *prometheus.CounterVec
	CounterSetsCompleted     prometheus.Counter
	CounterWorkoutsFinished  prometheus.Counter
	CounterWorkoutsAbandoned prometheus.Counter
	CounterRestExtended      prometheus.Counter
	CounterStorageErrors     *prometheus.CounterVec
	CounterSessionsImported  prometheus.Counter

	// gauges
	GaugeResting prometheus.Gauge

	// histograms
	HistRequestDuration prometheus.Histogram
	HistWorkoutDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("kettlebell", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("kettlebell", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "The total number of HTTP requests",
		}, []string{"method", "status"}),
		CounterSetsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sets_completed_total",
			Help:      "The total number of completed sets",
		}),
		CounterWorkoutsFinished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workouts_finished_total",
			Help:      "The total number of workouts saved to history",
		}),
		CounterWorkoutsAbandoned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workouts_abandoned_total",
			Help:      "The total number of workouts cleared or replaced before finishing",
		}),
		CounterRestExtended: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rest_extended_seconds_total",
			Help:      "Seconds added to rest periods",
		}),
		CounterStorageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "storage_errors_total",
			Help:      "Storage failures surfaced by the workout controller",
		}, []string{"op"}),
		CounterSessionsImported: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_imported_total",
			Help:      "Sessions inserted from export files",
		}),
		GaugeResting: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "resting",
			Help:      "1 while a rest timer is running",
		}),
		HistRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		HistWorkoutDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workout_duration_seconds",
			Help:      "Duration of finished workouts in seconds",
			Buckets:   []float64{60, 300, 600, 900, 1200, 1800, 2700, 3600, 5400},
		}),
	}
}
