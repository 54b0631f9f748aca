// Package metrics provides Prometheus metrics for the coach service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Roster
	totalPlayers   prometheus.Gauge
	totalExercises prometheus.Gauge
	totalPlans     prometheus.Gauge

	// Plan editing
	draftsOpen     prometheus.Gauge
	draftsEvicted  prometheus.Counter
	planSaves      prometheus.Counter
	entriesWritten prometheus.Counter

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// Change feed
	feedPublished   *prometheus.CounterVec
	feedDropped     *prometheus.CounterVec
	feedSubscribers *prometheus.GaugeVec

	// Avatars
	avatarBytes prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

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

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "coach",
		subsystem:        "service",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.totalPlayers = m.gauge("players_total", "Number of players in the roster")
	m.totalExercises = m.gauge("exercises_total", "Number of exercises in the library")
	m.totalPlans = m.gauge("plans_total", "Number of stored training plans")

	m.draftsOpen = m.gauge("drafts_open", "Plan editor drafts currently held in memory")
	m.draftsEvicted = m.counter("drafts_evicted_total", "Plan editor drafts evicted from the registry")
	m.planSaves = m.counter("plan_saves_total", "Training plans saved from the editor")
	m.entriesWritten = m.counter("plan_entries_written_total", "Plan entry rows written by plan saves")

	m.storeLatency = m.histogramVec("store_operation_duration_milliseconds", "Store operation latency in milliseconds", "operation")
	m.storeErrors = m.counterVec("store_errors_total", "Store operations that returned an error", "operation")

	m.feedPublished = m.counterVec("changefeed_published_total", "Change notifications published", "topic")
	m.feedDropped = m.counterVec("changefeed_coalesced_total", "Notifications coalesced because a subscriber had one pending", "topic")
	m.feedSubscribers = m.gaugeVec("changefeed_subscribers", "Active change feed subscribers", "topic")

	m.avatarBytes = m.counter("avatar_bytes_written_total", "Avatar payload bytes written")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// UpdateRosterTotals sets the roster gauges.
func UpdateRosterTotals(players, exercises, plans int) {
	globalManager.totalPlayers.Set(float64(players))
	globalManager.totalExercises.Set(float64(exercises))
	globalManager.totalPlans.Set(float64(plans))
}

// UpdateDraftsOpen sets the number of drafts held by the registry.
func UpdateDraftsOpen(count int) {
	globalManager.draftsOpen.Set(float64(count))
}

// RecordDraftEvicted counts a draft dropped by the registry.
func RecordDraftEvicted() {
	globalManager.draftsEvicted.Inc()
}

// RecordPlanSave counts a plan save and the entries it wrote.
func RecordPlanSave(entries int) {
	globalManager.planSaves.Inc()
	globalManager.entriesWritten.Add(float64(entries))
}

// RecordStoreOperation observes the latency of a store call and counts failures.
func RecordStoreOperation(operation string, latencyMs float64, err error) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
	if err != nil {
		globalManager.storeErrors.WithLabelValues(operation).Inc()
	}
}

// RecordChangePublished counts a published change notification.
func RecordChangePublished(topic string) {
	globalManager.feedPublished.WithLabelValues(topic).Inc()
}

// RecordChangeCoalesced counts a notification merged into a pending one.
func RecordChangeCoalesced(topic string) {
	globalManager.feedDropped.WithLabelValues(topic).Inc()
}

// AddSubscribers adjusts the subscriber gauge for a topic.
func AddSubscribers(topic string, delta int) {
	globalManager.feedSubscribers.WithLabelValues(topic).Add(float64(delta))
}

// RecordAvatarBytes counts avatar payload bytes written.
func RecordAvatarBytes(n int64) {
	globalManager.avatarBytes.Add(float64(n))
}

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

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

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
