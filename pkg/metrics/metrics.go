package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registry holds every collector exposed on /api/metrics
	Registry = prometheus.NewRegistry()

	factory = promauto.With(Registry)

	// Custom histogram buckets covering fast handlers up to slow upstream calls
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13}

	// HTTP Metrics
	HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// Redemption Metrics
	RedeemOutcomes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbc_redeem_outcomes_total",
			Help: "Redemption requests by terminal outcome",
		},
		[]string{"outcome"},
	)

	RedeemDistanceFeet = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cbc_redeem_distance_feet",
			Help:    "Reported distance from the event location in feet",
			Buckets: []float64{10, 25, 50, 100, 150, 300, 1000, 5280, 52800},
		},
	)

	WebhookDeliveryAttempts = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbc_webhook_delivery_attempts_total",
			Help: "Webhook delivery attempts by result",
		},
		[]string{"status"},
	)

	// Google Calendar Client Metrics
	CalendarRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "calendar_client_operation_duration_seconds",
			Help:    "Google Calendar API call duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	CalendarRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calendar_client_operation_total",
			Help: "Total number of Google Calendar API calls",
		},
		[]string{"operation", "status"},
	)

	CircuitBreakerState = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"breaker"},
	)

	// Cache Metrics
	CacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_name"},
	)

	CacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_name"},
	)

	// Database Metrics
	DatabaseQueryDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_client_operation_duration_seconds",
			Help:    "PostgreSQL query duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	// Auth Metrics
	SignIns = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbc_auth_sign_ins_total",
			Help: "Google sign-in attempts by result",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// MeasureDuration measures the duration of an operation
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}
