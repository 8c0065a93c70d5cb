package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Query metrics
	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsbot_queries_processed_total",
			Help: "Total number of queries processed",
		},
		[]string{"type", "tier", "outcome"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adsbot_query_duration_ms",
			Help:    "End-to-end query duration in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 15000},
		},
		[]string{"type", "tier"},
	)

	QueryEstimatedCostUSD = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adsbot_query_estimated_cost_usd",
			Help:    "Estimated cost in USD per query",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adsbot_cache_hits_total",
			Help: "Total number of fresh cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adsbot_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adsbot_cache_evictions_total",
			Help: "Total number of cache entries evicted by the LRU policy",
		},
	)

	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adsbot_cache_size",
			Help: "Current number of entries in the response cache",
		},
	)

	StaleCacheServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adsbot_cache_stale_served_total",
			Help: "Total number of expired cache entries served as a last resort",
		},
	)

	// Provider metrics
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsbot_provider_calls_total",
			Help: "Total number of provider calls",
		},
		[]string{"provider", "status"},
	)

	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adsbot_provider_call_duration_ms",
			Help:    "Provider call duration in milliseconds",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"provider"},
	)

	ProviderFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adsbot_provider_fallbacks_total",
			Help: "Total number of times the primary provider failed and the fallback was attempted",
		},
	)

	MockResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adsbot_mock_responses_total",
			Help: "Total number of synthesized responses returned after total provider failure",
		},
	)

	ProviderTokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsbot_provider_tokens_total",
			Help: "Total tokens consumed per provider",
		},
		[]string{"provider"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "adsbot_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsbot_circuit_breaker_trips_total",
			Help: "Total number of circuit breaker open transitions",
		},
		[]string{"name"},
	)

	// Telemetry metrics
	TelemetryEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsbot_telemetry_events_total",
			Help: "Total number of telemetry events recorded",
		},
		[]string{"key"},
	)
)
