package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Resolution metrics
	ResolutionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolvewatch_resolutions_completed_total",
			Help: "Total number of resolutions persisted",
		},
		[]string{"outcome", "source"}, // YES/NO/UNKNOWN/EARLY, ai/external
	)

	ResolutionsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolvewatch_resolutions_failed_total",
			Help: "Total number of failed resolution attempts",
		},
		[]string{"code"},
	)

	ConfidenceOverrides = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolvewatch_confidence_overrides_total",
			Help: "Total number of outcomes forced to UNKNOWN by the confidence threshold",
		},
		[]string{"original_outcome"},
	)

	ResolutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resolvewatch_resolution_duration_seconds",
			Help:    "Duration of resolver calls",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 300},
		},
	)

	ResolutionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resolvewatch_resolutions_in_flight",
			Help: "Number of resolution attempts currently in flight",
		},
	)

	// Scheduler metrics
	SchedulerChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolvewatch_scheduler_checks_total",
			Help: "Total number of scheduler check cycles",
		},
		[]string{"status"}, // success/error
	)

	MarketsTriggered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resolvewatch_markets_triggered_total",
			Help: "Total number of resolution attempts launched by the scheduler",
		},
	)

	// Event bus
	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolvewatch_event_handler_errors_total",
			Help: "Total number of failed event handler invocations",
		},
		[]string{"event_type"},
	)

	// Notification metrics
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolvewatch_notifications_sent_total",
			Help: "Total number of notifications sent",
		},
		[]string{"status", "kind"}, // success/error, completed/failed
	)

	// Outbound API metrics
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolvewatch_api_requests_total",
			Help: "Total number of outbound API requests",
		},
		[]string{"api", "endpoint", "status"}, // openrouter/gamma, /chat/completions, success/error
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resolvewatch_api_request_duration_seconds",
			Help:    "Duration of outbound API requests",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"api", "endpoint"},
	)

	// Inbound HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolvewatch_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "code"},
	)

	// Audit mirror
	AuditWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolvewatch_audit_writes_total",
			Help: "Total number of resolution audit rows written",
		},
		[]string{"status"},
	)

	AuditWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resolvewatch_audit_write_duration_seconds",
			Help:    "Duration of resolution audit writes",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// System health
	HealthChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolvewatch_health_checks_total",
			Help: "Total number of health check requests",
		},
		[]string{"status"}, // healthy/unhealthy
	)
)

// RecordResolution records a persisted resolution
func RecordResolution(outcome, source string, duration time.Duration) {
	ResolutionsCompleted.WithLabelValues(outcome, source).Inc()
	if source == "ai" {
		ResolutionDuration.Observe(duration.Seconds())
	}
}

// RecordResolutionFailure records a failed resolution attempt
func RecordResolutionFailure(code string) {
	ResolutionsFailed.WithLabelValues(code).Inc()
}

// RecordConfidenceOverride records an outcome forced to UNKNOWN
func RecordConfidenceOverride(originalOutcome string) {
	ConfidenceOverrides.WithLabelValues(originalOutcome).Inc()
}

// SetInFlight publishes the in-flight set size
func SetInFlight(n int) {
	ResolutionsInFlight.Set(float64(n))
}

// RecordSchedulerCheck records a scheduler cycle and how many markets it launched
func RecordSchedulerCheck(triggered int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	SchedulerChecks.WithLabelValues(status).Inc()
	MarketsTriggered.Add(float64(triggered))
}

// RecordEventHandlerError records a failed event handler
func RecordEventHandlerError(eventType string) {
	EventHandlerErrors.WithLabelValues(eventType).Inc()
}

// RecordNotification records a notification send attempt
func RecordNotification(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	NotificationsSent.WithLabelValues(status, kind).Inc()
}

// RecordAPIRequest records outbound API request metrics
func RecordAPIRequest(api, endpoint string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	APIRequests.WithLabelValues(api, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(api, endpoint).Observe(duration.Seconds())
}

// RecordHTTPRequest records an inbound request
func RecordHTTPRequest(method, route string, code int) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

// RecordAuditWrite records an audit mirror write
func RecordAuditWrite(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	AuditWrites.WithLabelValues(status).Inc()
	AuditWriteDuration.Observe(duration.Seconds())
}

// RecordHealthCheck records health check status
func RecordHealthCheck(healthy bool) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	HealthChecks.WithLabelValues(status).Inc()
}
