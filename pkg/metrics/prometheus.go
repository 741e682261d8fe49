// Package metrics provides Prometheus metrics for the coordination analysis service.
package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	latencyBuckets   []float64
	scoreBuckets     []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Analysis outcomes
	batchesAnalyzed    *prometheus.CounterVec
	batchesDuplicate   prometheus.Counter
	batchesRejected    *prometheus.CounterVec
	analysisLatency    prometheus.Histogram
	analysisErrors     prometheus.Counter
	coordinationScore  prometheus.Histogram
	stageLatency       *prometheus.HistogramVec
	stageStatus        *prometheus.CounterVec
	fallbackTimestamps prometheus.Counter

	// Queue
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueUtilization  prometheus.Gauge
	queueEnqueued     prometheus.Counter
	queueDequeued     prometheus.Counter
	queueEnqueueError prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerBatchesPerSecond  prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Result store
	repositoryLatency   *prometheus.HistogramVec
	repositoryEvictions prometheus.Counter
	storedAssessments   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "coordwatch",
		subsystem:        "analysis",
		latencyBuckets:   DefaultLatencyBuckets,
		scoreBuckets:     DefaultScoreBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.batchesAnalyzed = auto.NewCounterVec(m.counterOpts("batches_analyzed_total",
		"Total number of batches analyzed by resulting risk level"), []string{"risk_level"})
	m.batchesDuplicate = auto.NewCounter(m.counterOpts("batches_duplicate_total",
		"Total number of resubmitted batches ignored by deduplication"))
	m.batchesRejected = auto.NewCounterVec(m.counterOpts("batches_rejected_total",
		"Total number of batches rejected before analysis"), []string{"reason"})
	m.analysisLatency = auto.NewHistogram(m.histogramOpts("analysis_latency_milliseconds",
		"End to end analysis latency in milliseconds", m.latencyBuckets))
	m.analysisErrors = auto.NewCounter(m.counterOpts("analysis_errors_total",
		"Total number of analysis runs aborted without a report"))
	m.coordinationScore = auto.NewHistogram(m.histogramOpts("coordination_score",
		"Distribution of fused coordination scores", m.scoreBuckets))
	m.stageLatency = auto.NewHistogramVec(m.histogramOpts("stage_latency_milliseconds",
		"Latency of each analysis stage in milliseconds", m.latencyBuckets), []string{"stage"})
	m.stageStatus = auto.NewCounterVec(m.counterOpts("stage_status_total",
		"Stage outcomes by stage and status"), []string{"stage", "status"})
	m.fallbackTimestamps = auto.NewCounter(m.counterOpts("fallback_timestamps_total",
		"Total number of post timestamps replaced by the run start time"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of batches waiting for a worker"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue utilization ratio (size / capacity)"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of batches enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of batches dequeued"))
	m.queueEnqueueError = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Total number of enqueue failures"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured number of analysis workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of workers analyzing a batch"))
	m.workerIdleCount = auto.NewGauge(m.gaugeOpts("worker_idle_count", "Number of idle workers"))
	m.workerBatchesPerSecond = auto.NewGauge(m.gaugeOpts("worker_batches_per_second", "Average batches analyzed per second"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"Worker time per batch including storage, in milliseconds", m.latencyBuckets))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of worker errors"))

	m.repositoryLatency = auto.NewHistogramVec(m.histogramOpts("repository_latency_milliseconds",
		"Result store operation latency in milliseconds", m.latencyBuckets), []string{"op"})
	m.repositoryEvictions = auto.NewCounter(m.counterOpts("repository_evictions_total",
		"Total number of assessments evicted from the result store"))
	m.storedAssessments = auto.NewGauge(m.gaugeOpts("stored_assessments", "Number of assessments held in the result store"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.latencyBuckets), []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Total number of errors by component"), []string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total",
		"Total number of errors by type"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"Total number of errors by endpoint"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordBatchAnalyzed counts a completed analysis by its risk level.
func RecordBatchAnalyzed(riskLevel string) {
	globalManager.batchesAnalyzed.WithLabelValues(riskLevel).Inc()
}

// RecordBatchDuplicate increments the duplicate batch counter.
func RecordBatchDuplicate() {
	globalManager.batchesDuplicate.Inc()
}

// RecordBatchRejected counts a batch refused before analysis, e.g. "invalid" or "backpressure".
func RecordBatchRejected(reason string) {
	globalManager.batchesRejected.WithLabelValues(reason).Inc()
}

// RecordAnalysisLatency records end to end analysis latency in milliseconds.
func RecordAnalysisLatency(latencyMs float64) {
	globalManager.analysisLatency.Observe(latencyMs)
}

// RecordAnalysisError increments the aborted analysis counter.
func RecordAnalysisError() {
	globalManager.analysisErrors.Inc()
}

// RecordCoordinationScore observes a fused score.
func RecordCoordinationScore(score float64) {
	globalManager.coordinationScore.Observe(score)
}

// RecordStage records the outcome and latency of one stage.
func RecordStage(stage, status string, latencyMs float64) {
	globalManager.stageStatus.WithLabelValues(stage, status).Inc()
	globalManager.stageLatency.WithLabelValues(stage).Observe(latencyMs)
}

// RecordFallbackTimestamps adds n substituted timestamps.
func RecordFallbackTimestamps(n int) {
	if n > 0 {
		globalManager.fallbackTimestamps.Add(float64(n))
	}
}

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

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueError.Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) {
	globalManager.workerIdleCount.Set(float64(count))
}

// UpdateWorkerBatchesPerSecond sets the average analysis throughput.
func UpdateWorkerBatchesPerSecond(rate float64) {
	globalManager.workerBatchesPerSecond.Set(rate)
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordRepositoryLatency records the latency of a result store operation.
func RecordRepositoryLatency(op string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordRepositoryEviction increments the result store eviction counter.
func RecordRepositoryEviction() {
	globalManager.repositoryEvictions.Inc()
}

// UpdateStoredAssessments sets the number of stored assessments.
func UpdateStoredAssessments(count int) {
	globalManager.storedAssessments.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// UpdateProcessStats samples heap usage and goroutine count from the runtime.
func UpdateProcessStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	UpdateSystemMemoryUsage(m.HeapAlloc)
	UpdateSystemGoroutineCount(runtime.NumGoroutine())
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
