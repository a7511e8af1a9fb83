package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type QueryMetrics struct {
	registry *prometheus.Registry

	queriesTotal   *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	fallbackTotal  *prometheus.CounterVec
	noDataTotal    *prometheus.CounterVec
	retrievedItems *prometheus.HistogramVec
}

func NewQueryMetrics(service string) *QueryMetrics {
	registry := prometheus.NewRegistry()

	queriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inva",
			Subsystem: "query",
			Name:      "requests_total",
			Help:      "Total answered queries by result kind and status.",
		},
		[]string{"service", "kind", "status"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inva",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Query execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "kind"},
	)
	fallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inva",
			Subsystem: "query",
			Name:      "fuzzy_fallback_total",
			Help:      "Total queries resolved through the fuzzy identifier fallback.",
		},
		[]string{"service"},
	)
	noDataTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inva",
			Subsystem: "query",
			Name:      "no_data_total",
			Help:      "Total queries that retrieved no records.",
		},
		[]string{"service"},
	)
	retrievedItems := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inva",
			Subsystem: "query",
			Name:      "retrieved_records",
			Help:      "Distribution of retrieved records per query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 50},
		},
		[]string{"service", "kind"},
	)

	registry.MustRegister(queriesTotal, queryDuration, fallbackTotal, noDataTotal, retrievedItems)

	return &QueryMetrics{
		registry:       registry,
		queriesTotal:   queriesTotal,
		queryDuration:  queryDuration,
		fallbackTotal:  fallbackTotal,
		noDataTotal:    noDataTotal,
		retrievedItems: retrievedItems,
	}
}

func (m *QueryMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *QueryMetrics) RecordQuery(service, kind string, records int, fallbackUsed bool, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.queriesTotal.WithLabelValues(service, kind, status).Inc()
	if err != nil {
		return
	}

	m.queryDuration.WithLabelValues(service, kind).Observe(duration.Seconds())
	m.retrievedItems.WithLabelValues(service, kind).Observe(float64(records))
	if fallbackUsed {
		m.fallbackTotal.WithLabelValues(service).Inc()
	}
	if records == 0 {
		m.noDataTotal.WithLabelValues(service).Inc()
	}
}
