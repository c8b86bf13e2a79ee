package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	recruitment = "recruitment"

	// Candidature metrics
	candidatureTransitionsTotal = "candidature_transitions_total"
	// Cache metrics
	cacheRequestsTotal = "cache_requests_total"
	// Notification metrics
	notificationsTotal = "notifications_total"

	// Labels
	eventLabel             = "event"
	toStatusLabel          = "to"
	cacheKindLabel         = "kind"
	cacheResultLabel       = "result"
	notificationKindLabel  = "kind"
	notificationStateLabel = "state"
)

const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"

	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

var candidatureTransitionsTotalLabels = []string{
	eventLabel,
	toStatusLabel,
}

var cacheRequestsTotalLabels = []string{
	cacheKindLabel,
	cacheResultLabel,
}

var notificationsTotalLabels = []string{
	notificationKindLabel,
	notificationStateLabel,
}

/**
* Metrics definition
**/
var candidatureTransitionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: recruitment,
		Name:      candidatureTransitionsTotal,
		Help:      "number of committed candidature status transitions",
	},
	candidatureTransitionsTotalLabels,
)

var cacheRequestsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: recruitment,
		Name:      cacheRequestsTotal,
		Help:      "number of cache lookups partitioned by entity kind and result",
	},
	cacheRequestsTotalLabels,
)

var notificationsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: recruitment,
		Name:      notificationsTotal,
		Help:      "number of notifications attempted partitioned by kind and outcome",
	},
	notificationsTotalLabels,
)

func IncreaseCandidatureTransitionsTotalMetric(event, to string) {
	labels := prometheus.Labels{
		eventLabel:    event,
		toStatusLabel: to,
	}
	candidatureTransitionsTotalMetric.With(labels).Inc()
}

func IncreaseCacheRequestsTotalMetric(kind, result string) {
	labels := prometheus.Labels{
		cacheKindLabel:   kind,
		cacheResultLabel: result,
	}
	cacheRequestsTotalMetric.With(labels).Inc()
}

func IncreaseNotificationsTotalMetric(kind, state string) {
	labels := prometheus.Labels{
		notificationKindLabel:  kind,
		notificationStateLabel: state,
	}
	notificationsTotalMetric.With(labels).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(candidatureTransitionsTotalMetric)
	prometheus.MustRegister(cacheRequestsTotalMetric)
	prometheus.MustRegister(notificationsTotalMetric)
}
