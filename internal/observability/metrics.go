package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receiptkit",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "receiptkit",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	receiptsDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receiptkit",
			Subsystem: "decode",
			Name:      "receipts_total",
			Help:      "Receipts decoded, by outcome.",
		},
		[]string{"success"},
	)
	receiptDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "receiptkit",
			Subsystem: "decode",
			Name:      "receipt_duration_seconds",
			Help:      "Time spent decoding one receipt.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)
	attributesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receiptkit",
			Subsystem: "decode",
			Name:      "attributes_total",
			Help:      "Receipt attributes decoded, by attribute type.",
		},
		[]string{"type"},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receiptkit",
			Subsystem: "decode",
			Name:      "errors_total",
			Help:      "Decode failures, by error kind.",
		},
		[]string{"kind"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			receiptsDecoded,
			receiptDuration,
			attributesDecoded,
			decodeErrors,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordReceipt(success bool, duration time.Duration) {
	RegisterMetrics()
	receiptsDecoded.WithLabelValues(strconv.FormatBool(success)).Inc()
	receiptDuration.Observe(duration.Seconds())
}

func RecordAttribute(attrType string) {
	RegisterMetrics()
	attributesDecoded.WithLabelValues(attrType).Inc()
}

func RecordDecodeError(kind string) {
	RegisterMetrics()
	if kind == "" {
		kind = "unknown"
	}
	decodeErrors.WithLabelValues(kind).Inc()
}
