package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "readyhire"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// Feedback and bank responses dominate; health checks sit in the first bucket.
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response body size",
			Buckets:   prometheus.ExponentialBuckets(128, 4, 7),
		},
		[]string{"path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// AI gateway metrics
var (
	AIAPICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_api_calls_total",
			Help:      "Total number of AI API calls by task and outcome",
		},
		[]string{"task", "status"},
	)

	AICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_call_duration_seconds",
			Help:      "AI API call latency distribution",
			Buckets:   []float64{.25, .5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"task"},
	)

	// No user label, to keep cardinality flat.
	AITokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_tokens_total",
			Help:      "Total AI tokens consumed",
		},
		[]string{"type"}, // "input" or "output"
	)

	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_attempts_total",
			Help:      "Total number of retried generation calls",
		},
		[]string{"op"},
	)
)

// Practice metrics
var (
	ScoringFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_fallbacks_total",
			Help:      "Answers graded by the local heuristic instead of the AI grader",
		},
		[]string{"reason"},
	)

	QuotaDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_denials_total",
			Help:      "Practice actions blocked by an exhausted monthly allowance",
		},
		[]string{"kind", "tier"},
	)

	SessionsRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_recorded_total",
			Help:      "Practice sessions added to history",
		},
		[]string{"type"},
	)

	BanksGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "banks_generated_total",
			Help:      "Question banks generated",
		},
		[]string{"tier"},
	)

	MonthlyRolloversTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monthly_rollovers_total",
			Help:      "Usage counter resets at a calendar month boundary",
		},
	)

	StateStoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_store_errors_total",
			Help:      "Failed state store operations",
		},
		[]string{"op"},
	)
)

// Billing metrics
var (
	SubscriptionVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_verifications_total",
			Help:      "Subscription lookups against the billing provider",
		},
		[]string{"tier", "status"},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Stripe webhook events received",
		},
		[]string{"type"},
	)
)
