// Package metrics exposes interpretation and lexicon refresh counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ekaya-inc/ekaya-command/pkg/interpret"
	"github.com/ekaya-inc/ekaya-command/pkg/lexicon"
)

const namespace = "ekaya_command"

// Metrics implements lexicon.Observer and interpret.Observer.
type Metrics struct {
	registry *prometheus.Registry

	commandsTotal         *prometheus.CounterVec
	interpretDuration     prometheus.Histogram
	unmatchedTotal        *prometheus.CounterVec
	rejectedTotal         *prometheus.CounterVec
	refreshTotal          *prometheus.CounterVec
	refreshDuration       prometheus.Histogram
	snapshotModules       prometheus.Gauge
	snapshotSamples       prometheus.Gauge
	lastRefreshSuccessful prometheus.Gauge
}

var (
	_ lexicon.Observer   = (*Metrics)(nil)
	_ interpret.Observer = (*Metrics)(nil)
)

// New creates the metric set on a fresh registry that also carries the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "interpret",
			Name:      "commands_total",
			Help:      "Commands interpreted, by intent and resolved module",
		}, []string{"intent", "module"}),

		interpretDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "interpret",
			Name:      "duration_seconds",
			Help:      "Time spent interpreting one command",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),

		unmatchedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "interpret",
			Name:      "unmatched_entities_total",
			Help:      "Entities kept verbatim because no lexicon value matched",
		}, []string{"label"}),

		rejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "interpret",
			Name:      "rejected_entities_total",
			Help:      "Entity values dropped by the injection guard",
		}, []string{"label"}),

		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lexicon",
			Name:      "refresh_total",
			Help:      "Lexicon refresh attempts, by result",
		}, []string{"result"}),

		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lexicon",
			Name:      "refresh_duration_seconds",
			Help:      "Time spent sampling the store for one refresh",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),

		snapshotModules: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lexicon",
			Name:      "snapshot_modules",
			Help:      "Modules in the published lexicon snapshot",
		}),

		snapshotSamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lexicon",
			Name:      "snapshot_samples",
			Help:      "Sample values in the published lexicon snapshot",
		}),

		lastRefreshSuccessful: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lexicon",
			Name:      "last_refresh_successful",
			Help:      "1 if the most recent refresh published a snapshot, 0 otherwise",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.commandsTotal,
		m.interpretDuration,
		m.unmatchedTotal,
		m.rejectedTotal,
		m.refreshTotal,
		m.refreshDuration,
		m.snapshotModules,
		m.snapshotSamples,
		m.lastRefreshSuccessful,
	)

	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CommandInterpreted(intent interpret.Intent, module string, duration time.Duration) {
	m.commandsTotal.WithLabelValues(string(intent), module).Inc()
	m.interpretDuration.Observe(duration.Seconds())
}

func (m *Metrics) EntityUnmatched(label string) {
	m.unmatchedTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) EntityRejected(label string) {
	m.rejectedTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) RefreshSucceeded(duration time.Duration, stats lexicon.Stats) {
	m.refreshTotal.WithLabelValues("success").Inc()
	m.refreshDuration.Observe(duration.Seconds())
	m.snapshotModules.Set(float64(stats.Modules))
	m.snapshotSamples.Set(float64(stats.Samples))
	m.lastRefreshSuccessful.Set(1)
}

func (m *Metrics) RefreshFailed(duration time.Duration) {
	m.refreshTotal.WithLabelValues("failure").Inc()
	m.refreshDuration.Observe(duration.Seconds())
	m.lastRefreshSuccessful.Set(0)
}
