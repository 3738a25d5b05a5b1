package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "grownby_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	httpPanics   *prometheus.CounterVec

	authOutcomes *prometheus.CounterVec

	documentWrites *prometheus.CounterVec
	idAllocations  *prometheus.CounterVec

	blobBytes   prometheus.Counter
	blobUploads *prometheus.CounterVec

	watchSubscribers prometheus.Gauge
)

// Init creates and registers the collectors with reg. A nil reg means the
// default prometheus registry. Only the first call has any effect.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}

		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		httpPanics = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_panics_total",
				Help: "Handler panics recovered by route",
			},
			[]string{"route"},
		)

		authOutcomes = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "auth_outcomes_total",
				Help: "Identity operations by operation and outcome code",
			},
			[]string{"operation", "outcome"},
		)

		documentWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "document_writes_total",
				Help: "Document writes by collection and result",
			},
			[]string{"collection", "result"},
		)
		idAllocations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "id_allocations_total",
				Help: "Identifier allocations by collection",
			},
			[]string{"collection"},
		)

		blobBytes = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "blob_bytes_total",
				Help: "Total bytes stored in the blob store",
			},
		)
		blobUploads = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "blob_uploads_total",
				Help: "Blob uploads by result",
			},
			[]string{"result"},
		)

		watchSubscribers = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "watch_subscribers",
				Help: "Open collection watch streams",
			},
		)

		reg.MustRegister(
			httpRequests,
			httpLatency,
			httpPanics,
			authOutcomes,
			documentWrites,
			idAllocations,
			blobBytes,
			blobUploads,
			watchSubscribers,
		)
	})
}

// ObserveHTTP records one completed HTTP request.
func ObserveHTTP(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}

// IncPanic counts a recovered handler panic.
func IncPanic(route string) {
	if route == "" {
		route = "unmatched"
	}
	if httpPanics != nil {
		httpPanics.WithLabelValues(route).Inc()
	}
}

// IncAuthOutcome counts an identity operation result, e.g. ("signin", "WRONG_PASSWORD").
func IncAuthOutcome(operation, outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if authOutcomes != nil {
		authOutcomes.WithLabelValues(operation, outcome).Inc()
	}
}

// IncDocumentWrite counts a document write.
func IncDocumentWrite(collection string, err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if documentWrites != nil {
		documentWrites.WithLabelValues(collection, result).Inc()
	}
}

// IncIDAllocation counts an identifier handed out by the allocator.
func IncIDAllocation(collection string) {
	if idAllocations != nil {
		idAllocations.WithLabelValues(collection).Inc()
	}
}

// ObserveBlobUpload counts an upload and, on success, its size.
func ObserveBlobUpload(size int64, err error) {
	if err != nil {
		if blobUploads != nil {
			blobUploads.WithLabelValues(resultError).Inc()
		}
		return
	}
	if blobUploads != nil {
		blobUploads.WithLabelValues(resultSuccess).Inc()
	}
	if blobBytes != nil && size > 0 {
		blobBytes.Add(float64(size))
	}
}

// AddWatchSubscribers moves the open watch stream gauge by delta.
func AddWatchSubscribers(delta int) {
	if watchSubscribers != nil {
		watchSubscribers.Add(float64(delta))
	}
}
