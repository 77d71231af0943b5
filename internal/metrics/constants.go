package metrics

// ============================================================================
// Metric Names
// ============================================================================

// Namespace prefixes every metric exported by the service
const Namespace = "triviacast"

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished = "events_published_total"
)

// Lifecycle metric names
const (
	MetricNameGamesRanked           = "games_ranked_total"
	MetricNameGamesPublished        = "games_published_total"
	MetricNamePublishFailures       = "publish_failures_total"
	MetricNamePrizeUnitsDistributed = "prize_units_distributed_total"
	MetricNameOperationDuration     = "lifecycle_operation_duration_seconds"
	MetricNameSweepGames            = "sweep_games_total"
	MetricNameNotificationsSent     = "notifications_sent_total"
)

// Security metric names
const (
	MetricNameAuthFailures        = "auth_failures_total"
	MetricNameRateLimitedRequests = "rate_limited_requests_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

const (
	HelpTextHTTPRequestsTotal     = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration   = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight  = "Current number of HTTP requests being served"
	HelpTextEventsPublished       = "Total number of lifecycle events delivered to subscribers"
	HelpTextGamesRanked           = "Total number of games whose ranking committed"
	HelpTextGamesPublished        = "Total number of games whose prize distribution was confirmed"
	HelpTextPublishFailures       = "Total number of failed prize distributions"
	HelpTextPrizeUnitsDistributed = "Prize token base units assigned by committed rankings"
	HelpTextOperationDuration     = "Lifecycle operation latency in seconds"
	HelpTextSweepGames            = "Games visited by finalize sweeps"
	HelpTextNotificationsSent     = "Mini-app notification deliveries"
	HelpTextAuthFailures          = "Rejected requests by authentication scheme"
	HelpTextRateLimitedRequests   = "Requests rejected by the per-IP rate limit"
)

// ============================================================================
// Metric Label Names
// ============================================================================

const (
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelStatus    = "status"
	LabelType      = "type"
	LabelOperation = "operation"
	LabelOutcome   = "outcome"
	LabelKind      = "kind"
	LabelScheme    = "scheme"
)

// Auth scheme label values
const (
	SchemeCronSecret = "cron_secret"
	SchemeQuickAuth  = "quick_auth"
)

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// UnmatchedRoute labels requests that no route pattern matched
const UnmatchedRoute = "unmatched"

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets ranges from 1ms to 10s
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// OperationLatencyBuckets stretches to two minutes to cover chain confirmation waits
var OperationLatencyBuckets = []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60, 120}

// ============================================================================
// Log Messages
// ============================================================================

const (
	LogMsgEventPayloadUndecodable = "Event payload could not be decoded"
	LogMsgMetricsRecorded         = "Metrics recorded for event"
)
