package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveReceipt(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveReceipt(OutcomeTicket, 4)
	m.ObserveReceipt(OutcomeTicket, 2)
	m.ObserveReceipt(OutcomeError, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.receiptsProcessed.WithLabelValues(OutcomeTicket)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.receiptsProcessed.WithLabelValues(OutcomeError)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.itemsExtracted))
}

func TestMetrics_ObserveSplitCountsWarningKinds(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSplit("ok", []string{"over_claim", "over_claim", "unknown_item"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.splits.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.splitWarnings.WithLabelValues("over_claim")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.splitWarnings.WithLabelValues("unknown_item")))
}

func TestMetrics_ObserveOCRStatus(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOCR("anthropic", 2*time.Second, nil)
	m.ObserveOCR("anthropic", time.Second, errors.New("timeout"))

	assert.Equal(t, 2, testutil.CollectAndCount(m.ocrDuration))
}

func TestMetrics_ObserveEviction(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveEviction(3, 7)
	m.ObserveEviction(1, 6)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.receiptsEvicted))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.receiptsStored))
}

func TestMetrics_ObserveHTTPGroupsStatus(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveHTTP("GET", "/api/v1/receipts/:id", 404, time.Millisecond)
	m.ObserveHTTP("GET", "/api/v1/receipts/:id", 410, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/receipts/:id", "4xx")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveReceipt(OutcomeTicket, 1)
		m.ObserveOCR("openai", time.Second, nil)
		m.ObserveSplit("ok", []string{"over_claim"})
		m.ObserveEviction(1, 0)
		m.SetStored(2)
		m.ObserveHTTP("GET", "/health", 200, time.Millisecond)
	})
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{200, "2xx"},
		{302, "3xx"},
		{422, "4xx"},
		{502, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusLabel(tt.status))
	}
}
