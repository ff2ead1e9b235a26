package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// HTTP endpoints
	EndpointRecap      = "recap"
	EndpointProfile    = "profile"
	EndpointAuthStart  = "oauth_start"
	EndpointDisconnect = "disconnect"
	EndpointHealth     = "health"

	// Provider API operations
	OpListActivities = "list_activities"
	OpGetProfile     = "get_profile"
	OpRevokeAccess   = "revoke_access"

	// Rate limit types
	RateLimitOverall15Min = "overall_15min"
	RateLimitOverallDaily = "overall_daily"

	// Rate limit buckets
	BucketLimit = "limit"
	BucketUsage = "usage"

	// Cache results
	CacheHit  = "hit"
	CacheMiss = "miss"

	// Cache store operations
	CacheOpGet          = "get"
	CacheOpSet          = "set"
	CacheOpDeletePrefix = "delete_prefix"
	CacheOpStatus       = "status"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "status_code"},
	)
)

// Provider API Metrics
var (
	ProviderAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_api_requests_total",
			Help: "Total number of fitness provider API requests",
		},
		[]string{"provider", "operation", "status_code"},
	)

	ProviderAPIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_api_request_duration_seconds",
			Help:    "Fitness provider API request latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider", "operation", "status_code"},
	)

	ProviderRateLimitUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "provider_rate_limit_usage",
			Help: "Provider API rate limit usage as last reported by the provider",
		},
		[]string{"provider", "limit_type", "bucket"},
	)

	ProviderFetchPages = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_fetch_pages",
			Help:    "Number of pages requested per activity fetch",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 50},
		},
		[]string{"provider"},
	)

	ProviderFetchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_fetch_failures_total",
			Help: "Total number of failed activity fetches by failure kind",
		},
		[]string{"provider", "kind"},
	)
)

// Recap Metrics
var (
	RecapAggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recap_aggregation_duration_seconds",
			Help:    "Time spent aggregating an activity list into a recap",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	RecapActivitiesCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recap_activities_count",
			Help:    "Number of activities aggregated per recap",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)
)

// Cache Metrics
var (
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Total number of recap cache reads by result",
		},
		[]string{"result"},
	)

	CacheRepairsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_repairs_total",
			Help: "Total number of fields repaired while normalizing cached recaps",
		},
		[]string{"field"},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Number of entries currently held by the cache store",
		},
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_operation_duration_seconds",
			Help:    "Cache store operation latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	CacheOperationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operation_errors_total",
			Help: "Total number of cache store operation errors",
		},
		[]string{"operation"},
	)
)
