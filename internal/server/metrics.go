package server

import (
	"github.com/liftlog/liftlog/internal/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors exported at /metrics.
type Metrics struct {
	CounterRequests        *prometheus.CounterVec
	CounterSessionEvents   *prometheus.CounterVec
	CounterWorkoutsCreated prometheus.Counter
	CounterSetsLogged      prometheus.Counter

	HistRequestDuration prometheus.Histogram
}

// NewMetrics registers the collectors on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "The total number of incoming requests",
		}, []string{"method", "route", "status"}),
		CounterSessionEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session changes by type",
		}, []string{"event"}),
		CounterWorkoutsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workouts_created_total",
			Help:      "The total number of workouts created through the API",
		}),
		CounterSetsLogged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sets_logged_total",
			Help:      "The total number of sets in created workouts",
		}),
		HistRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Total duration of requests in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
	}
}

// ObserveSession counts a session change; pass it to auth.Service.Subscribe.
func (m *Metrics) ObserveSession(e auth.Event) {
	m.CounterSessionEvents.With(prometheus.Labels{"event": string(e.Type)}).Inc()
}
