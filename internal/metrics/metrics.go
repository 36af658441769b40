package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/invoice-gate/constants"
)

// Metrics holds the pipeline collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	DocumentsTotal   *prometheus.CounterVec
	ModelAttempts    *prometheus.CounterVec
	DocumentDuration prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New registers the collectors with reg. A nil reg uses a fresh private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoice_documents_total",
				Help: "Documents processed, by terminal status",
			},
			[]string{"status"},
		),
		ModelAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoice_model_attempts_total",
				Help: "Language model requests, by prompt strategy and result",
			},
			[]string{"strategy", "result"},
		),
		DocumentDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "invoice_document_duration_seconds",
				Help:    "End-to-end processing time per document",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
	}
	reg.MustRegister(m.DocumentsTotal, m.ModelAttempts, m.DocumentDuration)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// ObserveAttempt satisfies llm.AttemptObserver.
func (m *Metrics) ObserveAttempt(strategy, result string) {
	if m == nil {
		return
	}
	m.ModelAttempts.WithLabelValues(strategy, result).Inc()
}

// ObserveDocument records one terminal document.
func (m *Metrics) ObserveDocument(status constants.DocStatus, d time.Duration) {
	if m == nil || !status.Terminal() {
		return
	}
	m.DocumentsTotal.WithLabelValues(string(status)).Inc()
	m.DocumentDuration.Observe(d.Seconds())
}

// Handler exposes the registry the collectors were registered with.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
