// Package metrics exposes service metrics in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chronoscope"

// Identify outcomes
const (
	OutcomeMatched  = "matched"
	OutcomeDegraded = "degraded"
	OutcomeBadInput = "bad_input"
	OutcomeError    = "error"
)

// Metrics owns an isolated registry so tests can create as many as they like
type Metrics struct {
	Registry *prometheus.Registry

	identifyTotal    *prometheus.CounterVec
	identifyDuration prometheus.Histogram
	catalogSize      prometheus.Gauge
	degraded         prometheus.Gauge
	confidence       prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.identifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identify_requests_total",
		Help:      "Identification requests by outcome",
	}, []string{"outcome"})
	m.identifyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "identify_duration_seconds",
		Help:      "Time spent embedding and searching one image",
		Buckets:   prometheus.DefBuckets,
	})
	m.confidence = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "identify_confidence",
		Help:      "Top-1 similarity of non-degraded answers",
		Buckets:   prometheus.LinearBuckets(-1, 0.2, 11),
	})
	m.catalogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_entries",
		Help:      "Number of indexed catalog entries",
	})
	m.degraded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "degraded",
		Help:      "1 when the matcher answers from the fallback list",
	})

	m.Registry.MustRegister(
		m.identifyTotal,
		m.identifyDuration,
		m.confidence,
		m.catalogSize,
		m.degraded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveIdentify records one identification request
func (m *Metrics) ObserveIdentify(outcome string, elapsed time.Duration, confidence float32) {
	m.identifyTotal.WithLabelValues(outcome).Inc()
	m.identifyDuration.Observe(elapsed.Seconds())
	if outcome == OutcomeMatched {
		m.confidence.Observe(float64(confidence))
	}
}

// SetMatcherState publishes the catalog size and degraded flag
func (m *Metrics) SetMatcherState(catalogSize int, degraded bool) {
	m.catalogSize.Set(float64(catalogSize))
	if degraded {
		m.degraded.Set(1)
	} else {
		m.degraded.Set(0)
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
