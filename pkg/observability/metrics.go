package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
// Every Record method is safe to call on a nil *Metrics.
type Metrics struct {
	// Extension metrics
	ExtensionsRegistered      prometheus.Gauge
	ExtensionTransitionsTotal *prometheus.CounterVec

	// Document metrics
	DocumentSwitchesTotal *prometheus.CounterVec
	DocumentSavesTotal    *prometheus.CounterVec
	DocumentApplyDuration *prometheus.HistogramVec

	// Event metrics
	EventsPublishedTotal *prometheus.CounterVec
	EventsDroppedTotal   *prometheus.CounterVec

	// Store cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		ExtensionsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "omniverlay_extensions_registered",
				Help: "Number of registered extensions",
			},
		),
		ExtensionTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omniverlay_extension_transitions_total",
				Help: "Total number of extension enable/disable transitions",
			},
			[]string{"extension", "transition", "status"},
		),
		DocumentSwitchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omniverlay_document_switches_total",
				Help: "Total number of profile/layout switches",
			},
			[]string{"kind", "status"},
		),
		DocumentSavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omniverlay_document_saves_total",
				Help: "Total number of profile/layout saves",
			},
			[]string{"kind", "status"},
		),
		DocumentApplyDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "omniverlay_document_apply_duration_seconds",
				Help:    "Time spent applying a document to the live extensions",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"kind"},
		),
		EventsPublishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omniverlay_events_published_total",
				Help: "Total number of events delivered to at least one subscriber",
			},
			[]string{"type"},
		),
		EventsDroppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omniverlay_events_dropped_total",
				Help: "Total number of events dropped for lack of subscribers",
			},
			[]string{"type"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omniverlay_store_cache_hits_total",
				Help: "Total number of document store cache hits",
			},
			[]string{"kind"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omniverlay_store_cache_misses_total",
				Help: "Total number of document store cache misses",
			},
			[]string{"kind"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.ExtensionsRegistered,
		m.ExtensionTransitionsTotal,
		m.DocumentSwitchesTotal,
		m.DocumentSavesTotal,
		m.DocumentApplyDuration,
		m.EventsPublishedTotal,
		m.EventsDroppedTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordRegistered sets the registered extension count
func (m *Metrics) RecordRegistered(count int) {
	if m == nil {
		return
	}
	m.ExtensionsRegistered.Set(float64(count))
}

// RecordTransition counts an enable or disable attempt
func (m *Metrics) RecordTransition(extension string, enabled bool, err error) {
	if m == nil {
		return
	}
	transition := "disable"
	if enabled {
		transition = "enable"
	}
	m.ExtensionTransitionsTotal.WithLabelValues(extension, transition, status(err)).Inc()
}

// RecordSwitch counts a document switch
func (m *Metrics) RecordSwitch(kind string, err error) {
	if m == nil {
		return
	}
	m.DocumentSwitchesTotal.WithLabelValues(kind, status(err)).Inc()
}

// RecordSave counts a document save
func (m *Metrics) RecordSave(kind string, err error) {
	if m == nil {
		return
	}
	m.DocumentSavesTotal.WithLabelValues(kind, status(err)).Inc()
}

// ObserveApply records how long applying a document took
func (m *Metrics) ObserveApply(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.DocumentApplyDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordEvent counts a published or dropped event
func (m *Metrics) RecordEvent(eventType string, delivered bool) {
	if m == nil {
		return
	}
	if delivered {
		m.EventsPublishedTotal.WithLabelValues(eventType).Inc()
		return
	}
	m.EventsDroppedTotal.WithLabelValues(eventType).Inc()
}

// RecordCache counts a store cache lookup
func (m *Metrics) RecordCache(kind string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(kind).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(kind).Inc()
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
