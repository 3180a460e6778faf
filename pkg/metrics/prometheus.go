// Package metrics provides Prometheus metrics for the match winner service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Prediction flow
	predictions        *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	serviceUnavailable prometheus.Counter
	discardedResponses prometheus.Counter
	stateTransitions   *prometheus.CounterVec
	roundTripLatency   prometheus.Histogram

	// Outbound prediction service
	predictorRequests *prometheus.CounterVec
	predictorLatency  *prometheus.HistogramVec

	// Sessions
	activeSessions prometheus.Gauge
	sessionsReaped prometheus.Counter

	// History recording
	historyRecorded prometheus.Counter
	historyDropped  prometheus.Counter
	historyErrors   prometheus.Counter
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	workerCount     prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
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
		namespace:        "matchwinner",
		subsystem:        "web",
		histogramBuckets: prometheus.ExponentialBuckets(5, 2, 12), // 5ms .. ~10s
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(
		m.counterOpts("predictions_total", "Predictions shown to users by outcome"),
		[]string{"outcome"},
	)
	m.validationFailures = auto.NewCounterVec(
		m.counterOpts("validation_failures_total", "Rejected form submissions by reason"),
		[]string{"reason"},
	)
	m.serviceUnavailable = auto.NewCounter(
		m.counterOpts("service_unavailable_total", "Submissions that ended with the prediction service unavailable"),
	)
	m.discardedResponses = auto.NewCounter(
		m.counterOpts("discarded_responses_total", "Responses dropped because they were stale or arrived after teardown"),
	)
	m.stateTransitions = auto.NewCounterVec(
		m.counterOpts("state_transitions_total", "Controller state transitions"),
		[]string{"from", "to"},
	)
	m.roundTripLatency = auto.NewHistogram(
		m.histogramOpts("prediction_roundtrip_milliseconds", "Time from submit to the result view, dwell included"),
	)

	m.predictorRequests = auto.NewCounterVec(
		m.counterOpts("predictor_requests_total", "Outbound prediction service calls by status"),
		[]string{"status"},
	)
	m.predictorLatency = auto.NewHistogramVec(
		m.histogramOpts("predictor_request_duration_milliseconds", "Outbound prediction service latency"),
		[]string{"status"},
	)

	m.activeSessions = auto.NewGauge(m.gaugeOpts("active_sessions", "Sessions currently holding a controller"))
	m.sessionsReaped = auto.NewCounter(m.counterOpts("sessions_reaped_total", "Idle sessions closed by the reaper"))

	m.historyRecorded = auto.NewCounter(m.counterOpts("history_recorded_total", "History entries written to the store"))
	m.historyDropped = auto.NewCounter(m.counterOpts("history_dropped_total", "History entries dropped because the queue was full"))
	m.historyErrors = auto.NewCounter(m.counterOpts("history_errors_total", "History entries the store failed to write"))
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current size of the history queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum history queue capacity"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "History worker goroutines"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpErrors = auto.NewCounterVec(
		m.counterOpts("http_errors_total", "HTTP error responses by endpoint and error type"),
		[]string{"endpoint", "method", "error_type", "severity"},
	)
}

// RecordPrediction counts a prediction that reached the result view.
func RecordPrediction(outcome string) {
	globalManager.predictions.WithLabelValues(outcome).Inc()
}

// RecordValidationFailure counts a rejected submission.
func RecordValidationFailure(reason string) {
	globalManager.validationFailures.WithLabelValues(reason).Inc()
}

// RecordServiceUnavailable counts a failed prediction call.
func RecordServiceUnavailable() {
	globalManager.serviceUnavailable.Inc()
}

// RecordDiscardedResponse counts a dropped late response.
func RecordDiscardedResponse() {
	globalManager.discardedResponses.Inc()
}

// RecordStateTransition counts a controller transition.
func RecordStateTransition(from, to string) {
	globalManager.stateTransitions.WithLabelValues(from, to).Inc()
}

// RecordRoundTripLatency records submit-to-result time in milliseconds.
func RecordRoundTripLatency(latencyMs float64) {
	globalManager.roundTripLatency.Observe(latencyMs)
}

// RecordPredictorRequest records an outbound call and its latency.
func RecordPredictorRequest(status string, latencyMs float64) {
	globalManager.predictorRequests.WithLabelValues(status).Inc()
	globalManager.predictorLatency.WithLabelValues(status).Observe(latencyMs)
}

// UpdateActiveSessions sets the current session count.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// RecordSessionReaped counts a reaped session.
func RecordSessionReaped() {
	globalManager.sessionsReaped.Inc()
}

// RecordHistoryRecorded counts a stored history entry.
func RecordHistoryRecorded() {
	globalManager.historyRecorded.Inc()
}

// RecordHistoryDropped counts a history entry dropped at enqueue.
func RecordHistoryDropped() {
	globalManager.historyDropped.Inc()
}

// RecordHistoryError counts a failed store write.
func RecordHistoryError() {
	globalManager.historyErrors.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, method, errorType, severity string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType, severity).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
