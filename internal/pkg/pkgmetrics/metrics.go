package pkgmetrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chemviz"

// Upload results.
const (
	UploadAccepted = "accepted"
	UploadRejected = "rejected"
	UploadFailed   = "failed"
)

//nolint:gochecknoglobals // collectors are process wide by nature
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests being served",
		},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "CSV uploads by result",
		},
		[]string{"result"},
	)

	UploadRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_rows",
			Help:      "Number of equipment rows in accepted uploads",
			Buckets:   []float64{0, 10, 50, 100, 500, 1000, 5000, 10000, 50000},
		},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_operation_duration_seconds",
			Help:      "Dataset store operation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "driver"},
	)

	StorageBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "storage_breaker_state",
			Help:      "Storage circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	ReportCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Report cache lookups by result",
		},
		[]string{"result"},
	)

	ReportCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "report_cache_entries",
			Help:      "Rendered reports currently held in the cache",
		},
	)

	ReportCacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_evictions_total",
			Help:      "Rendered reports dropped from the cache to make room",
		},
	)

	HTTPPanicsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_panics_total",
			Help:      "Handler panics recovered by the router",
		},
		[]string{"route"},
	)

	EventQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_queue_depth",
			Help:      "Events waiting in the in-process bus",
		},
		[]string{"bus"},
	)

	ReportRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_render_duration_seconds",
			Help:      "PDF report render latency in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// TrackInFlight increments or decrements the in-flight gauge.
func TrackInFlight(inc bool) {
	if inc {
		HTTPRequestsInFlight.Inc()
		return
	}
	HTTPRequestsInFlight.Dec()
}

// RecordUpload records the outcome of an upload. rows is only observed for
// accepted uploads.
func RecordUpload(result string, rows int) {
	UploadsTotal.WithLabelValues(result).Inc()
	if result == UploadAccepted {
		UploadRows.Observe(float64(rows))
	}
}

// RecordStorageOperation records the latency of a dataset store call.
func RecordStorageOperation(operation, driver string, d time.Duration) {
	StorageOperationDuration.WithLabelValues(operation, driver).Observe(d.Seconds())
}

// SetBreakerState publishes a breaker state as a gauge value.
func SetBreakerState(name string, state float64) {
	StorageBreakerState.WithLabelValues(name).Set(state)
}

// RecordReportCache records a report cache hit or miss.
func RecordReportCache(hit bool) {
	if hit {
		ReportCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	ReportCacheTotal.WithLabelValues("miss").Inc()
}

// SetReportCacheEntries publishes the current report cache size.
func SetReportCacheEntries(n int) {
	ReportCacheEntries.Set(float64(n))
}

func RecordReportCacheEviction() {
	ReportCacheEvictionsTotal.Inc()
}

// RecordReportRender records how long a PDF render took.
func RecordReportRender(d time.Duration) {
	ReportRenderDuration.Observe(d.Seconds())
}

// RecordPanic counts a recovered handler panic.
func RecordPanic(route string) {
	HTTPPanicsTotal.WithLabelValues(route).Inc()
}

// SetEventQueueDepth publishes how many events are buffered in a bus.
func SetEventQueueDepth(bus string, depth int) {
	EventQueueDepth.WithLabelValues(bus).Set(float64(depth))
}
