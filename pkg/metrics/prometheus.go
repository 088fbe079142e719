// Package metrics provides Prometheus metrics for the wildwatch service.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector used by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Scans
	scans            *prometheus.CounterVec
	scanLatency      prometheus.Histogram
	scansTriggered   prometheus.Counter
	sightings        *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec

	// Repository
	repositoryRecords      prometheus.Gauge
	repositoryReadErrors   prometheus.Counter
	repositoryWriteErrors  prometheus.Counter
	repositoryWriteLatency prometheus.Histogram
	repositoryReadLatency  prometheus.Histogram

	// Webhook ingest
	webhookDeliveries *prometheus.CounterVec

	// Queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueRejected    *prometheus.CounterVec

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Publishing
	publishes *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors on the
// configured registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "wildwatch",
		subsystem:        "",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return strings.Trim(m.metricPrefix, "_") + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	b := m.histogramBuckets

	m.scans = auto.NewCounterVec(m.counterOpts("scans_total", "Scans by result (success, invalid, failed)"), []string{"result"})
	m.scanLatency = auto.NewHistogram(m.histogramOpts("scan_latency_milliseconds", "End-to-end scan latency in milliseconds", b))
	m.scansTriggered = auto.NewCounter(m.counterOpts("scans_triggered_total", "Scans where the upstream condition was met"))
	m.sightings = auto.NewCounterVec(m.counterOpts("sightings_total", "Extracted sightings by species and confidence"), []string{"species", "confidence"})
	m.upstreamRequests = auto.NewCounterVec(m.counterOpts("upstream_requests_total", "Requests to the vision endpoint by endpoint and status"), []string{"endpoint", "status"})
	m.upstreamLatency = auto.NewHistogramVec(m.histogramOpts("upstream_latency_milliseconds", "Vision endpoint latency in milliseconds", b), []string{"endpoint"})

	m.repositoryRecords = auto.NewGauge(m.gaugeOpts("repository_records", "Records currently held in detection history"))
	m.repositoryReadErrors = auto.NewCounter(m.counterOpts("repository_read_errors_total", "History reads that failed and were treated as empty"))
	m.repositoryWriteErrors = auto.NewCounter(m.counterOpts("repository_write_errors_total", "History writes that failed"))
	m.repositoryWriteLatency = auto.NewHistogram(m.histogramOpts("repository_write_latency_milliseconds", "History write latency in milliseconds", b))
	m.repositoryReadLatency = auto.NewHistogram(m.histogramOpts("repository_read_latency_milliseconds", "History read latency in milliseconds", b))

	m.webhookDeliveries = auto.NewCounterVec(m.counterOpts("webhook_deliveries_total", "Webhook deliveries by outcome"), []string{"status"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of queued webhook events"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue utilization ratio (size / capacity)"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Events enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Events dequeued"))
	m.queueRejected = auto.NewCounterVec(m.counterOpts("queue_rejected_total", "Enqueue attempts rejected by reason"), []string{"reason"})

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Number of ingest workers"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds", "Webhook event processing latency in milliseconds", b))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Webhook events that failed to process"))

	m.publishes = auto.NewCounterVec(m.counterOpts("publishes_total", "Detection publications by result"), []string{"result"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", b), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component"), []string{"component", "error_type"})
	m.errorsByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total", "Errors by type"), []string{"error_type", "severity"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Errors by endpoint"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// Scan metrics.

// RecordScan counts one scan with its result label.
func RecordScan(result string) {
	globalManager.scans.WithLabelValues(result).Inc()
}

// RecordScanLatency observes end-to-end scan latency.
func RecordScanLatency(latencyMs float64) {
	globalManager.scanLatency.Observe(latencyMs)
}

// RecordScanTriggered counts a scan whose condition was met.
func RecordScanTriggered() {
	globalManager.scansTriggered.Inc()
}

// RecordSighting counts one extracted sighting.
func RecordSighting(species, confidence string) {
	globalManager.sightings.WithLabelValues(species, confidence).Inc()
}

// RecordUpstreamRequest counts a request to the vision endpoint and observes its latency.
func RecordUpstreamRequest(endpoint, status string, latencyMs float64) {
	globalManager.upstreamRequests.WithLabelValues(endpoint, status).Inc()
	globalManager.upstreamLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// Repository metrics.

// UpdateRepositoryRecords sets the number of records in history.
func UpdateRepositoryRecords(count int) {
	globalManager.repositoryRecords.Set(float64(count))
}

// RecordRepositoryReadError counts a read that fell back to empty history.
func RecordRepositoryReadError() {
	globalManager.repositoryReadErrors.Inc()
}

// RecordRepositoryWriteError counts a failed history write.
func RecordRepositoryWriteError() {
	globalManager.repositoryWriteErrors.Inc()
}

// RecordRepositoryWriteLatency observes a history write.
func RecordRepositoryWriteLatency(latencyMs float64) {
	globalManager.repositoryWriteLatency.Observe(latencyMs)
}

// RecordRepositoryReadLatency observes a history read.
func RecordRepositoryReadLatency(latencyMs float64) {
	globalManager.repositoryReadLatency.Observe(latencyMs)
}

// Webhook metrics.

// RecordWebhookDelivery counts a webhook delivery by outcome
// (accepted, duplicate, rejected, invalid).
func RecordWebhookDelivery(status string) {
	globalManager.webhookDeliveries.WithLabelValues(status).Inc()
}

// Queue metrics.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueRejected counts a refused enqueue.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// Worker metrics.

// UpdateWorkerCount sets the number of ingest workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency observes one processed event.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordPublish counts a detection publication (ok, error, skipped).
func RecordPublish(result string) {
	globalManager.publishes.WithLabelValues(result).Inc()
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets the heap allocation in bytes.
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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
