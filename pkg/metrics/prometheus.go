// Package metrics provides Prometheus metrics for the matchsim service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the matchsim service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Engine metrics
	matchesSimulated      *prometheus.CounterVec
	simulationDuration    prometheus.Histogram
	ticksSimulated        prometheus.Counter
	pointsScored          *prometheus.CounterVec
	injuriesRecorded      *prometheus.CounterVec
	interchanges          prometheus.Counter
	injuryReplacements    prometheus.Counter
	snapshotsPublished    prometheus.Counter
	snapshotPublishErrors prometheus.Counter
	simulationErrors      *prometheus.CounterVec

	// Round and storage metrics
	roundsSubmitted     prometheus.Counter
	matchesPending      prometheus.Gauge
	resultsStored       prometheus.Gauge
	injuryHistoryErrors *prometheus.CounterVec
	streamClients       prometheus.Gauge
	ladderTeams         prometheus.Gauge
	ladderUpdateLatency prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue metrics
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "matchsim",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
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
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: constLabels,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: constLabels,
		}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: constLabels,
		})
	}
	histogram := func(name, help string, buckets []float64) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, Buckets: buckets, ConstLabels: constLabels,
		})
	}

	// Engine metrics
	m.matchesSimulated = counterVec("matches_simulated_total", "Total number of simulated matches by outcome", "outcome")
	m.simulationDuration = histogram("simulation_duration_milliseconds", "Wall-clock time to simulate one match", m.histogramBuckets)
	m.ticksSimulated = counter("ticks_simulated_total", "Total number of simulated ticks")
	m.pointsScored = counterVec("scores_total", "Total number of scores by kind", "kind")
	m.injuriesRecorded = counterVec("injuries_total", "Total number of new injuries by severity", "severity")
	m.interchanges = counter("interchanges_total", "Total number of tactical interchanges")
	m.injuryReplacements = counter("injury_replacements_total", "Total number of bench players brought on for injured players")
	m.snapshotsPublished = counter("snapshots_published_total", "Total number of snapshots delivered to sinks")
	m.snapshotPublishErrors = counter("snapshot_publish_errors_total", "Total number of swallowed snapshot sink failures")
	m.simulationErrors = counterVec("simulation_errors_total", "Total number of rejected simulations by reason", "reason")

	// Round and storage metrics
	m.roundsSubmitted = counter("rounds_submitted_total", "Total number of submitted rounds")
	m.matchesPending = gauge("matches_pending", "Number of submitted matches not yet simulated")
	m.resultsStored = gauge("results_stored", "Number of results held by the result store")
	m.injuryHistoryErrors = counterVec("injury_history_errors_total", "Injury history store failures by operation", "operation")
	m.streamClients = gauge("stream_clients", "Number of connected snapshot stream clients")
	m.ladderTeams = gauge("ladder_teams", "Number of teams on the premiership ladder")
	m.ladderUpdateLatency = histogram("ladder_update_latency_milliseconds", "Ladder update latency in milliseconds", m.histogramBuckets)

	// HTTP metrics
	m.httpRequests = counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("http_request_duration_milliseconds"),
		Help: "HTTP request duration in milliseconds", Buckets: m.histogramBuckets, ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	// Queue metrics
	m.queueSize = gauge("queue_size", "Current size of the simulation job queue")
	m.queueCapacity = gauge("queue_capacity", "Maximum capacity of the simulation job queue")
	m.queueUtilization = gauge("queue_utilization_ratio", "Current queue utilization ratio (0.0 to 1.0)")
	m.queueEnqueueRate = counter("queue_enqueue_total", "Total number of jobs enqueued")
	m.queueDequeueRate = counter("queue_dequeue_total", "Total number of jobs dequeued")
	m.queueEnqueueErrors = counter("queue_enqueue_errors_total", "Total number of enqueue errors")
	m.queueProcessingLatency = histogram("queue_processing_latency_milliseconds", "Queue operation latency in milliseconds", m.histogramBuckets)

	// Worker metrics
	m.workerCount = gauge("worker_count", "Configured number of simulation workers")
	m.workerActiveCount = gauge("worker_active_count", "Number of workers currently simulating a match")
	m.workerProcessingLatency = histogram("worker_processing_latency_milliseconds", "Worker job processing latency in milliseconds", m.histogramBuckets)
	m.workerErrorRate = counter("worker_errors_total", "Total number of worker job failures")

	// Error metrics
	m.errorRateByComponent = counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
	m.errorRateByType = counterVec("errors_by_type_total", "Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("error_latency_milliseconds"),
		Help: "Latency of operations that resulted in errors", Buckets: m.histogramBuckets, ConstLabels: constLabels,
	}, []string{"component", "error_type"})

	// System metrics
	m.systemMemoryUsage = gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Engine metrics functions.

// RecordMatchSimulated increments the simulated match counter for outcome (home, away, draw).
func RecordMatchSimulated(outcome string) {
	globalManager.matchesSimulated.WithLabelValues(outcome).Inc()
}

// RecordSimulationDuration records how long one match took to simulate.
func RecordSimulationDuration(latencyMs float64) {
	globalManager.simulationDuration.Observe(latencyMs)
}

// RecordTicks adds n simulated ticks.
func RecordTicks(n int) {
	globalManager.ticksSimulated.Add(float64(n))
}

// RecordScore increments the score counter for kind (goal, behind).
func RecordScore(kind string, n int) {
	globalManager.pointsScored.WithLabelValues(kind).Add(float64(n))
}

// RecordInjury increments the injury counter for severity.
func RecordInjury(severity string) {
	globalManager.injuriesRecorded.WithLabelValues(severity).Inc()
}

// RecordInterchanges adds n tactical interchanges.
func RecordInterchanges(n int) {
	globalManager.interchanges.Add(float64(n))
}

// RecordInjuryReplacements adds n injury replacements.
func RecordInjuryReplacements(n int) {
	globalManager.injuryReplacements.Add(float64(n))
}

// RecordSnapshotPublished increments the delivered snapshot counter.
func RecordSnapshotPublished() {
	globalManager.snapshotsPublished.Inc()
}

// RecordSnapshotPublishError increments the swallowed sink failure counter.
func RecordSnapshotPublishError() {
	globalManager.snapshotPublishErrors.Inc()
}

// RecordSimulationError increments the rejected simulation counter for reason.
func RecordSimulationError(reason string) {
	globalManager.simulationErrors.WithLabelValues(reason).Inc()
}

// Round and storage metrics functions.

// RecordRoundSubmitted increments the submitted round counter.
func RecordRoundSubmitted() {
	globalManager.roundsSubmitted.Inc()
}

// UpdateMatchesPending sets the number of queued or running matches.
func UpdateMatchesPending(n int) {
	globalManager.matchesPending.Set(float64(n))
}

// UpdateResultsStored sets the number of stored results.
func UpdateResultsStored(n int) {
	globalManager.resultsStored.Set(float64(n))
}

// RecordInjuryHistoryError increments the injury history failure counter for operation (load, record).
func RecordInjuryHistoryError(operation string) {
	globalManager.injuryHistoryErrors.WithLabelValues(operation).Inc()
}

// UpdateStreamClients adjusts the connected stream client gauge by delta.
func UpdateStreamClients(delta int) {
	globalManager.streamClients.Add(float64(delta))
}

// UpdateLadderTeams sets the number of teams on the ladder.
func UpdateLadderTeams(n int) {
	globalManager.ladderTeams.Set(float64(n))
}

// RecordLadderUpdateLatency records the time taken to apply one result to the ladder.
func RecordLadderUpdateLatency(latencyMs float64) {
	globalManager.ladderUpdateLatency.Observe(latencyMs)
}

// HTTP metrics functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue metrics functions.

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

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker metrics functions.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount adjusts the number of busy workers by delta.
func UpdateWorkerActiveCount(delta int) {
	globalManager.workerActiveCount.Add(float64(delta))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// Error metrics functions.

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

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics functions.

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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
