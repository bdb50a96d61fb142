package metrics

import "time"

// AICallSucceeded records a completed gateway call and its token usage.
func AICallSucceeded(task string, duration time.Duration, inputTokens, outputTokens int) {
	AIAPICalls.WithLabelValues(task, "success").Inc()
	AICallDuration.WithLabelValues(task).Observe(duration.Seconds())
	AITokensTotal.WithLabelValues("input").Add(float64(inputTokens))
	AITokensTotal.WithLabelValues("output").Add(float64(outputTokens))
}

// AICallFailed records a failed gateway call. kind is the failure class.
func AICallFailed(task, kind string, duration time.Duration) {
	AIAPICalls.WithLabelValues(task, kind).Inc()
	AICallDuration.WithLabelValues(task).Observe(duration.Seconds())
}

// ScoringFellBack records an answer graded by the local heuristic.
func ScoringFellBack(reason string) {
	ScoringFallbacksTotal.WithLabelValues(reason).Inc()
}

// QuotaDenied records an action blocked by the entitlement engine.
func QuotaDenied(kind, tier string) {
	QuotaDenialsTotal.WithLabelValues(kind, tier).Inc()
}
