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
			Namespace: "edgeinfer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edgeinfer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	records = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgeinfer",
			Subsystem: "session",
			Name:      "records_total",
			Help:      "Records processed by outcome (normal, anomaly, undetermined, skipped, malformed).",
		},
		[]string{"port", "outcome"},
	)
	responseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edgeinfer",
			Subsystem: "session",
			Name:      "response_duration_seconds",
			Help:      "Time from frame flush to the device response line.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"port", "result"},
	)
	bytesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgeinfer",
			Subsystem: "link",
			Name:      "bytes_sent_total",
			Help:      "Frame bytes written to the device.",
		},
		[]string{"port"},
	)
	sessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgeinfer",
			Subsystem: "session",
			Name:      "sessions_total",
			Help:      "Sessions finished by result (completed, cancelled, failed).",
		},
		[]string{"port", "result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, records, responseDuration, bytesSent, sessions)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordOutcome(port, outcome string) {
	RegisterMetrics()
	records.WithLabelValues(port, outcome).Inc()
}

// Response results.
const (
	ResponseLine      = "line"
	ResponseTimeout   = "timeout"
	ResponseReadError = "read_error"
)

func RecordResponse(port string, duration time.Duration, result string) {
	RegisterMetrics()
	responseDuration.WithLabelValues(port, result).Observe(duration.Seconds())
}

func RecordBytesSent(port string, n int) {
	RegisterMetrics()
	bytesSent.WithLabelValues(port).Add(float64(n))
}

func RecordSession(port, result string) {
	RegisterMetrics()
	sessions.WithLabelValues(port, result).Inc()
}
