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
			Namespace: "plotwire",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "plotwire",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	framesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plotwire",
			Subsystem: "session",
			Name:      "frames_total",
			Help:      "Frames published, by frame kind.",
		},
		[]string{"kind"},
	)
	bytesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plotwire",
			Subsystem: "session",
			Name:      "bytes_total",
			Help:      "Frame body bytes published, by frame kind.",
		},
		[]string{"kind"},
	)
	batches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plotwire",
			Subsystem: "session",
			Name:      "batches_total",
			Help:      "Batches attempted, by result.",
		},
		[]string{"result"},
	)
	batchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "plotwire",
			Subsystem: "session",
			Name:      "batch_duration_seconds",
			Help:      "Time to publish one batch.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, framesSent, bytesSent, batches, batchDuration)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordFrame(kind string, size int) {
	RegisterMetrics()
	framesSent.WithLabelValues(kind).Inc()
	bytesSent.WithLabelValues(kind).Add(float64(size))
}

func RecordBatch(success bool, duration time.Duration) {
	RegisterMetrics()
	result := "ok"
	if !success {
		result = "error"
	}
	batches.WithLabelValues(result).Inc()
	batchDuration.Observe(duration.Seconds())
}
