package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameHTTPRequestsTotal,
			Help:      HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      MetricNameHTTPRequestDuration,
			Help:      HelpTextHTTPRequestDuration,
			Buckets:   HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      MetricNameHTTPRequestsInFlight,
			Help:      HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameEventsPublished,
			Help:      HelpTextEventsPublished,
		},
		[]string{LabelType},
	)
)

// Lifecycle Metrics
var (
	GamesRanked = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameGamesRanked,
			Help:      HelpTextGamesRanked,
		},
	)

	GamesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameGamesPublished,
			Help:      HelpTextGamesPublished,
		},
	)

	PublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNamePublishFailures,
			Help:      HelpTextPublishFailures,
		},
	)

	PrizeUnitsDistributed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNamePrizeUnitsDistributed,
			Help:      HelpTextPrizeUnitsDistributed,
		},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      MetricNameOperationDuration,
			Help:      HelpTextOperationDuration,
			Buckets:   OperationLatencyBuckets,
		},
		[]string{LabelOperation, LabelOutcome},
	)

	SweepGames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameSweepGames,
			Help:      HelpTextSweepGames,
		},
		[]string{LabelOutcome},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameNotificationsSent,
			Help:      HelpTextNotificationsSent,
		},
		[]string{LabelKind, LabelOutcome},
	)
)

// Security Metrics
var (
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameAuthFailures,
			Help:      HelpTextAuthFailures,
		},
		[]string{LabelScheme},
	)

	RateLimitedRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricNameRateLimitedRequests,
			Help:      HelpTextRateLimitedRequests,
		},
	)
)

// Outcome maps an operation error to its outcome label
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// ObserveOperation records the latency of a lifecycle operation started at start
func ObserveOperation(operation string, start time.Time, err error) {
	OperationDuration.WithLabelValues(operation, Outcome(err)).Observe(time.Since(start).Seconds())
}
