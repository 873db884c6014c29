package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every RateCraft series.  It implements the rating
// engine's MetricsSink.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Rating
	CalculationsTotal   CounterVec
	CalculationDuration HistogramVec
	DegradationsTotal   CounterVec
	CacheLookupsTotal   CounterVec

	// Messaging
	EventsPublishedTotal   CounterVec
	MessagesProcessedTotal CounterVec
	MessageProcessDuration HistogramVec

	// Infrastructure
	DBQueryDuration   HistogramVec
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Rating calculations target tens of milliseconds, so buckets are finer than
// the HTTP defaults.
var (
	DefaultHTTPDurationBuckets        = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	DefaultCalculationDurationBuckets = []float64{.001, .0025, .005, .01, .02, .035, .05, .075, .1, .25, .5}
	DefaultDBDurationBuckets          = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}
)

// NewAppMetrics registers all metrics.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "route", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "route")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method")

	m.CalculationsTotal = collector.RegisterCounter("premium_calculations_total", "Premium calculations", "state", "outcome")
	m.CalculationDuration = collector.RegisterHistogram("premium_calculation_duration_seconds", "Premium calculation latency", DefaultCalculationDurationBuckets, "state")
	m.DegradationsTotal = collector.RegisterCounter("factor_degradations_total", "Rating factors that fell back to neutral", "component")
	m.CacheLookupsTotal = collector.RegisterCounter("rating_cache_lookups_total", "Rating cache lookups", "result")

	m.EventsPublishedTotal = collector.RegisterCounter("events_published_total", "Events published", "topic", "status")
	m.MessagesProcessedTotal = collector.RegisterCounter("messages_processed_total", "Consumed messages", "topic", "status")
	m.MessageProcessDuration = collector.RegisterHistogram("message_process_duration_seconds", "Message processing duration", DefaultHTTPDurationBuckets, "topic")

	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "operation")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by component and code", "component", "code")

	return m
}

// ObserveCalculation records one premium calculation.
func (m *AppMetrics) ObserveCalculation(state string, outcome string, elapsed time.Duration) {
	if state == "" {
		state = "unknown"
	}
	m.CalculationsTotal.WithLabelValues(state, outcome).Inc()
	m.CalculationDuration.WithLabelValues(state).Observe(elapsed.Seconds())
}

// ObserveDegradation counts a factor that fell back to 1.0.
func (m *AppMetrics) ObserveDegradation(component string) {
	m.DegradationsTotal.WithLabelValues(component).Inc()
}

func RecordHTTPRequest(metrics *AppMetrics, method, route string, statusCode int, duration time.Duration) {
	metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordEventPublish(metrics *AppMetrics, topic string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.EventsPublishedTotal.WithLabelValues(topic, status).Inc()
}

func RecordMessageProcessed(metrics *AppMetrics, topic string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.MessagesProcessedTotal.WithLabelValues(topic, status).Inc()
	metrics.MessageProcessDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

func RecordDBQuery(metrics *AppMetrics, operation string, duration time.Duration, err error) {
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("database", "query_error").Inc()
	}
}

func RecordCacheLookup(metrics *AppMetrics, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.CacheLookupsTotal.WithLabelValues(result).Inc()
}

func RecordHealth(metrics *AppMetrics, component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	metrics.HealthCheckStatus.WithLabelValues(component).Set(v)
}

func RecordError(metrics *AppMetrics, component, code string) {
	metrics.ErrorsTotal.WithLabelValues(component, code).Inc()
}

//Personal.AI order the ending
