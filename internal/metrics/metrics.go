// Package metrics exposes Prometheus instruments for the HTTP server and the
// training analytics it serves.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Manager struct {
	// counters
	CounterRequests         *prometheus.CounterVec
	CounterSetsIngested     prometheus.Counter
	CounterRecommendations  *prometheus.CounterVec
	CounterDeloadChecks     *prometheus.CounterVec
	CounterRecoveryCheckins *prometheus.CounterVec

	// histograms
	HistRequestDuration prometheus.Histogram

	gatherer prometheus.Gatherer
}

// NewRegistry returns a registry with build info, Go runtime and process
// collectors plus any extra collectors, such as a connection pool's.
func NewRegistry(extra ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reg.MustRegister(extra...)
	return reg
}

func NewTestManager() *Manager {
	return NewManager("freelift", "test", prometheus.NewRegistry())
}

func NewManager(namespace, subsystem string, reg *prometheus.Registry) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "The total number of HTTP requests",
		}, []string{"method", "status"}),
		CounterSetsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sets_ingested_total",
			Help:      "Logged sets newly stored by ingest",
		}),
		CounterRecommendations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "recommendations_total",
			Help:      "Progression recommendations served, by action",
		}, []string{"action"}),
		CounterDeloadChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "deload_checks_total",
			Help:      "Deload assessments served, by outcome",
		}, []string{"needs_deload", "severity"}),
		CounterRecoveryCheckins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "recovery_checkins_total",
			Help:      "Recovery check-ins recorded, by recommendation",
		}, []string{"recommendation"}),
		HistRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}),
		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
