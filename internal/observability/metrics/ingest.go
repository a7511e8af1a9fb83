package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type IngestMetrics struct {
	registry *prometheus.Registry

	ingestTotal    *prometheus.CounterVec
	ingestDuration *prometheus.HistogramVec
	ingestInFlight prometheus.Gauge
	pagesFailed    *prometheus.CounterVec
	lineItems      *prometheus.HistogramVec
}

func NewIngestMetrics(service string) *IngestMetrics {
	registry := prometheus.NewRegistry()

	ingestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inva",
			Subsystem: "ingest",
			Name:      "invoices_total",
			Help:      "Total ingested invoices by outcome.",
		},
		[]string{"service", "status"},
	)
	ingestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inva",
			Subsystem: "ingest",
			Name:      "invoice_duration_seconds",
			Help:      "Invoice ingestion duration in seconds by outcome.",
			Buckets:   []float64{1, 2, 5, 10, 20, 40, 60, 120, 300},
		},
		[]string{"service", "status"},
	)
	ingestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "inva",
			Subsystem: "ingest",
			Name:      "invoices_in_flight",
			Help:      "Number of invoices currently being ingested.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	pagesFailed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inva",
			Subsystem: "ingest",
			Name:      "pages_failed_total",
			Help:      "Total pages whose extraction failed and was skipped.",
		},
		[]string{"service"},
	)
	lineItems := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inva",
			Subsystem: "ingest",
			Name:      "line_items_per_invoice",
			Help:      "Distribution of extracted line items per invoice.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 200},
		},
		[]string{"service"},
	)

	registry.MustRegister(ingestTotal, ingestDuration, ingestInFlight, pagesFailed, lineItems)

	return &IngestMetrics{
		registry:       registry,
		ingestTotal:    ingestTotal,
		ingestDuration: ingestDuration,
		ingestInFlight: ingestInFlight,
		pagesFailed:    pagesFailed,
		lineItems:      lineItems,
	}
}

func (m *IngestMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *IngestMetrics) StartInvoice() {
	m.ingestInFlight.Inc()
}

func (m *IngestMetrics) FinishInvoice(service string, duration time.Duration, lineItems, failedPages int, err error) {
	m.ingestInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.ingestTotal.WithLabelValues(service, status).Inc()
	m.ingestDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	if err == nil {
		m.lineItems.WithLabelValues(service).Observe(float64(lineItems))
	}
	if failedPages > 0 {
		m.pagesFailed.WithLabelValues(service).Add(float64(failedPages))
	}
}

func (m *IngestMetrics) RecordSkipped(service string) {
	m.ingestTotal.WithLabelValues(service, "skipped").Inc()
}
