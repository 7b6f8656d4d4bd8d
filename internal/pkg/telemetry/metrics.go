package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Data freshness
	MetricCorpusFreshness = "places.corpus_age_seconds"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricCoveragePlans  = "business.coverage_plans_generated"
	MetricItineraries    = "business.itineraries_built"
	MetricRecommendServe = "business.recommendations_served"
)
