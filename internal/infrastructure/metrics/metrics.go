// Package metrics exposes Prometheus instruments for receipt processing,
// splitting and HTTP traffic.
//
// All methods are safe to call on a nil *Metrics, which lets tests and the
// dry-run CLI skip instrumentation entirely.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ticketsplit"

// Outcomes recorded for processed uploads
const (
	OutcomeTicket    = "ticket"
	OutcomeNotTicket = "not_ticket"
	OutcomeEmpty     = "empty"
	OutcomeError     = "error"
)

// Metrics holds every instrument the API records.
type Metrics struct {
	receiptsProcessed *prometheus.CounterVec
	ocrDuration       *prometheus.HistogramVec
	itemsExtracted    prometheus.Histogram
	splits            *prometheus.CounterVec
	splitWarnings     *prometheus.CounterVec
	receiptsEvicted   prometheus.Counter
	receiptsStored    prometheus.Gauge
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New creates the instruments and registers them with registerer.
// A nil registerer means prometheus.DefaultRegisterer.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		receiptsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_processed_total",
			Help:      "Uploaded receipts by processing outcome.",
		}, []string{"outcome"}),

		ocrDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ocr_duration_seconds",
			Help:      "Latency of the vision model extraction call.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"provider", "status"}),

		itemsExtracted: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "receipt_items",
			Help:      "Number of items extracted per receipt.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),

		splits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "splits_total",
			Help:      "Split requests by status.",
		}, []string{"status"}),

		splitWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "split_warnings_total",
			Help:      "Soft anomalies found while splitting, by kind.",
		}, []string{"kind"}),

		receiptsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_evicted_total",
			Help:      "Receipts removed by the retention janitor.",
		}),

		receiptsStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "receipts_stored",
			Help:      "Receipts currently held by the store.",
		}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),

		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registerer.MustRegister(
		m.receiptsProcessed,
		m.ocrDuration,
		m.itemsExtracted,
		m.splits,
		m.splitWarnings,
		m.receiptsEvicted,
		m.receiptsStored,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// ObserveReceipt records one processed upload.
func (m *Metrics) ObserveReceipt(outcome string, items int) {
	if m == nil {
		return
	}
	m.receiptsProcessed.WithLabelValues(outcome).Inc()
	if outcome != OutcomeError {
		m.itemsExtracted.Observe(float64(items))
	}
}

// ObserveOCR records the latency of one extraction call.
func (m *Metrics) ObserveOCR(provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ocrDuration.WithLabelValues(provider, status).Observe(d.Seconds())
}

// ObserveSplit records a split request and any warnings it produced.
func (m *Metrics) ObserveSplit(status string, warningKinds []string) {
	if m == nil {
		return
	}
	m.splits.WithLabelValues(status).Inc()
	for _, kind := range warningKinds {
		m.splitWarnings.WithLabelValues(kind).Inc()
	}
}

// ObserveEviction records a janitor sweep.
func (m *Metrics) ObserveEviction(removed int64, remaining int) {
	if m == nil {
		return
	}
	m.receiptsEvicted.Add(float64(removed))
	m.receiptsStored.Set(float64(remaining))
}

// SetStored sets the stored receipts gauge.
func (m *Metrics) SetStored(n int) {
	if m == nil {
		return
	}
	m.receiptsStored.Set(float64(n))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
