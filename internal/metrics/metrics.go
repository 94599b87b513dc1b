// Package metrics exposes Prometheus collectors for reconciliation,
// registry and notification activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector, registered on its own registry so that
// tests can create as many instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	Reconciliations        *prometheus.CounterVec
	ReconciliationDuration *prometheus.HistogramVec
	Failures               *prometheus.CounterVec
	RegistryRequests       *prometheus.CounterVec
	RegistryDuration       *prometheus.HistogramVec
	Notifications          *prometheus.CounterVec
	TrackedProcesses       prometheus.Gauge
	LastSweep              prometheus.Gauge
}

// New creates a Metrics instance with all collectors registered, plus the
// standard Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Reconciliations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "juscheck_reconciliations_total",
			Help: "Reconciliation passes by outcome",
		}, []string{"outcome"}),
		ReconciliationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "juscheck_reconciliation_duration_seconds",
			Help:    "Duration of a reconciliation pass, fetch and dispatch included",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "juscheck_reconciliation_failures_total",
			Help: "Per-record reconciliation failures by stage",
		}, []string{"stage"}),
		RegistryRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "juscheck_registry_requests_total",
			Help: "Registry requests by court and outcome",
		}, []string{"court", "outcome"}),
		RegistryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "juscheck_registry_request_duration_seconds",
			Help:    "Registry request latency by court",
			Buckets: prometheus.DefBuckets,
		}, []string{"court"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "juscheck_notifications_total",
			Help: "Notification dispatch attempts by kind and result",
		}, []string{"kind", "sent"}),
		TrackedProcesses: f.NewGauge(prometheus.GaugeOpts{
			Name: "juscheck_tracked_processes",
			Help: "Number of tracked processes seen by the last sweep",
		}),
		LastSweep: f.NewGauge(prometheus.GaugeOpts{
			Name: "juscheck_last_sweep_timestamp_seconds",
			Help: "Unix time the last sweep finished",
		}),
	}
}

// ObserveReconciliation records one pass.
func (m *Metrics) ObserveReconciliation(outcome string, elapsed time.Duration) {
	m.Reconciliations.WithLabelValues(outcome).Inc()
	m.ReconciliationDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) IncFailure(stage string) {
	m.Failures.WithLabelValues(stage).Inc()
}

// ObserveRegistryRequest records one registry round trip.
func (m *Metrics) ObserveRegistryRequest(court, outcome string, elapsed time.Duration) {
	m.RegistryRequests.WithLabelValues(court, outcome).Inc()
	m.RegistryDuration.WithLabelValues(court).Observe(elapsed.Seconds())
}

func (m *Metrics) IncNotification(kind string, sent bool) {
	m.Notifications.WithLabelValues(kind, strconv.FormatBool(sent)).Inc()
}

// ObserveSweep records the size and completion time of a sweep.
func (m *Metrics) ObserveSweep(tracked int, finished time.Time) {
	m.TrackedProcesses.Set(float64(tracked))
	m.LastSweep.Set(float64(finished.Unix()))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
