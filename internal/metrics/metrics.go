// Package metrics exposes Prometheus collectors for the analytics service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bizlens"

// Metrics holds every collector on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	rpcRequests      *prometheus.CounterVec
	rpcDuration      *prometheus.HistogramVec
	analyzerDuration *prometheus.HistogramVec
	analyzerFailures *prometheus.CounterVec
	fetchFailures    *prometheus.CounterVec
	ingestedRecords  *prometheus.CounterVec
	healthScore      prometheus.Gauge
	anomalies        *prometheus.GaugeVec
}

// New creates and registers all collectors, plus the Go and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC requests by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		analyzerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analyzer_duration_seconds",
			Help:      "Time spent in each analyzer.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"analyzer"}),
		analyzerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyzer_failures_total",
			Help:      "Analyzers that panicked while building a dashboard.",
		}, []string{"analyzer"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_fetch_failures_total",
			Help:      "Failed snapshot fetches by collection.",
		}, []string{"collection"}),
		ingestedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_records_total",
			Help:      "Imported records by kind and result.",
		}, []string{"kind", "result"}),
		healthScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health_score",
			Help:      "Most recently computed business health score (0-100).",
		}),
		anomalies: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "anomalies",
			Help:      "Anomalies found by the latest detection run, by severity.",
		}, []string{"severity"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rpcRequests,
		m.rpcDuration,
		m.analyzerDuration,
		m.analyzerFailures,
		m.fetchFailures,
		m.ingestedRecords,
		m.healthScore,
		m.anomalies,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRPC(procedure, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(d.Seconds())
}

func (m *Metrics) ObserveAnalyzer(analyzer string, d time.Duration) {
	if m == nil {
		return
	}
	m.analyzerDuration.WithLabelValues(analyzer).Observe(d.Seconds())
}

func (m *Metrics) AnalyzerFailed(analyzer string) {
	if m == nil {
		return
	}
	m.analyzerFailures.WithLabelValues(analyzer).Inc()
}

func (m *Metrics) FetchFailed(collection string) {
	if m == nil {
		return
	}
	m.fetchFailures.WithLabelValues(collection).Inc()
}

// Ingested records the outcome of an import batch for one kind.
func (m *Metrics) Ingested(kind string, accepted, skipped int) {
	if m == nil {
		return
	}
	m.ingestedRecords.WithLabelValues(kind, "accepted").Add(float64(accepted))
	m.ingestedRecords.WithLabelValues(kind, "skipped").Add(float64(skipped))
}

func (m *Metrics) SetHealthScore(score int) {
	if m == nil {
		return
	}
	m.healthScore.Set(float64(score))
}

// SetAnomalies replaces the per-severity anomaly counts.
func (m *Metrics) SetAnomalies(bySeverity map[string]int) {
	if m == nil {
		return
	}
	m.anomalies.Reset()
	for sev, n := range bySeverity {
		m.anomalies.WithLabelValues(sev).Set(float64(n))
	}
}
