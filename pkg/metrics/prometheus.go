// Package metrics provides Prometheus metrics for the expression atlas service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// defaultLatencyBuckets spans 1ms to about 65s; evidence exports of large
// experiments sit at the top end.
var defaultLatencyBuckets = prometheus.ExponentialBuckets(1, 2, 17) //nolint:gochecknoglobals // read-only defaults

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace       string
	subsystem       string
	latencyBuckets  []float64
	refreshInterval time.Duration
	constLabels     map[string]string
	registry        prometheus.Registerer

	// Domain Metrics
	filterGroupsBuilt  *prometheus.CounterVec
	profilesAggregated prometheus.Counter
	evidenceRecords    *prometheus.CounterVec
	contrastsSkipped   *prometheus.CounterVec
	experimentsSkipped *prometheus.CounterVec

	// Search Index Metrics
	indexQueries      *prometheus.CounterVec
	indexQueryLatency *prometheus.HistogramVec
	indexRows         *prometheus.CounterVec

	// Cache Metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// Export Queue Metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	exportJobs         *prometheus.CounterVec

	// Worker Metrics
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// Blob Store Metrics
	blobOperations *prometheus.CounterVec

	// System Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "gxa",
		subsystem:       "atlas",
		latencyBuckets:  defaultLatencyBuckets,
		refreshInterval: defaultRefreshInterval,
		registry:        prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.filterGroupsBuilt = m.counterVec("filter_groups_built_total",
		"Total number of heatmap filter groups built", "kind")
	m.profilesAggregated = m.counter("profiles_aggregated_total",
		"Total number of baseline gene profiles aggregated")
	m.evidenceRecords = m.counterVec("evidence_records_total",
		"Total number of evidence records emitted by confidence level", "confidence")
	m.contrastsSkipped = m.counterVec("contrasts_skipped_total",
		"Total number of contrasts excluded from evidence by reason", "reason")
	m.experimentsSkipped = m.counterVec("experiments_skipped_total",
		"Total number of experiments excluded from evidence by reason", "reason")

	m.indexQueries = m.counterVec("index_queries_total",
		"Total number of search index queries by collection and outcome", "collection", "outcome")
	m.indexQueryLatency = m.histogramVec("index_query_duration_milliseconds",
		"Search index query latency in milliseconds", "collection")
	m.indexRows = m.counterVec("index_rows_total",
		"Total number of rows returned by the search index", "collection")

	m.cacheHits = m.counterVec("cache_hits_total", "Total number of cache hits", "cache")
	m.cacheMisses = m.counterVec("cache_misses_total", "Total number of cache misses", "cache")

	m.queueSize = m.gauge("export_queue_size", "Current number of pending export jobs")
	m.queueCapacity = m.gauge("export_queue_capacity", "Maximum number of pending export jobs")
	m.queueEnqueueRate = m.counter("export_queue_enqueue_total", "Total number of export jobs enqueued")
	m.queueDequeueRate = m.counter("export_queue_dequeue_total", "Total number of export jobs dequeued")
	m.queueEnqueueErrors = m.counter("export_queue_enqueue_errors_total",
		"Total number of export jobs rejected by the queue")
	m.exportJobs = m.counterVec("export_jobs_total",
		"Total number of export jobs reaching a status", "status")

	m.workerCount = m.gauge("worker_count", "Current number of export workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Export job processing latency in milliseconds")
	m.workerErrorRate = m.counter("worker_errors_total", "Total number of failed export jobs")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint, method and error type", "endpoint", "method", "error_type")

	m.blobOperations = m.counterVec("blob_operations_total",
		"Total number of blob store operations by driver, operation and outcome", "driver", "operation", "outcome")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Current number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Last GC pause time in milliseconds")
}

// Domain Metrics Functions.

// RecordFilterGroupsBuilt adds n filter groups built for an experiment kind.
func RecordFilterGroupsBuilt(kind string, n int) {
	globalManager.filterGroupsBuilt.WithLabelValues(kind).Add(float64(n))
}

// RecordProfilesAggregated adds n aggregated profiles.
func RecordProfilesAggregated(n int) {
	globalManager.profilesAggregated.Add(float64(n))
}

// RecordEvidenceRecord increments the evidence counter for a confidence level.
func RecordEvidenceRecord(confidence string) {
	globalManager.evidenceRecords.WithLabelValues(confidence).Inc()
}

// RecordContrastSkipped increments the skipped contrasts counter.
func RecordContrastSkipped(reason string) {
	globalManager.contrastsSkipped.WithLabelValues(reason).Inc()
}

// RecordExperimentSkipped increments the skipped experiments counter.
func RecordExperimentSkipped(reason string) {
	globalManager.experimentsSkipped.WithLabelValues(reason).Inc()
}

// Search Index Metrics Functions.

// RecordIndexQuery records one index query with its outcome and latency.
func RecordIndexQuery(collection, outcome string, latencyMs float64) {
	globalManager.indexQueries.WithLabelValues(collection, outcome).Inc()
	globalManager.indexQueryLatency.WithLabelValues(collection).Observe(latencyMs)
}

// RecordIndexRows adds the rows returned by a query.
func RecordIndexRows(collection string, n int) {
	globalManager.indexRows.WithLabelValues(collection).Add(float64(n))
}

// Cache Metrics Functions.

// RecordCacheHit increments the hit counter of cache.
func RecordCacheHit(cache string) {
	globalManager.cacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss increments the miss counter of cache.
func RecordCacheMiss(cache string) {
	globalManager.cacheMisses.WithLabelValues(cache).Inc()
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordExportJob increments the export job counter for status.
func RecordExportJob(status string) {
	globalManager.exportJobs.WithLabelValues(status).Inc()
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordBlobOperation records a blob store call.
func RecordBlobOperation(driver, operation, outcome string) {
	globalManager.blobOperations.WithLabelValues(driver, operation, outcome).Inc()
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// RefreshInterval returns how often system gauges should be sampled.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
