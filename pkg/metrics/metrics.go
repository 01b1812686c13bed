package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	portal = "portal"

	transitionsTotal          = "transitions_total"
	notificationFailuresTotal = "notification_failures_total"

	// Labels
	recordTypeLabel = "record_type"
	actionLabel     = "action"
	resultLabel     = "result"
	kindLabel       = "kind"
)

const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultConflict = "conflict"
	ResultError    = "error"
)

var transitionsTotalLabels = []string{
	recordTypeLabel,
	actionLabel,
	resultLabel,
}

/**
* Metrics definition
**/
var transitionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: portal,
		Name:      transitionsTotal,
		Help:      "number of workflow actions partitioned by record type, action and result",
	},
	transitionsTotalLabels,
)

var notificationFailuresTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: portal,
		Name:      notificationFailuresTotal,
		Help:      "number of status notifications that could not be queued or delivered",
	},
	[]string{kindLabel},
)

func IncreaseTransitionMetric(recordType, action, result string) {
	labels := prometheus.Labels{
		recordTypeLabel: recordType,
		actionLabel:     action,
		resultLabel:     result,
	}
	transitionsTotalMetric.With(labels).Inc()
}

func IncreaseNotificationFailureMetric(kind string) {
	notificationFailuresTotalMetric.With(prometheus.Labels{kindLabel: kind}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(transitionsTotalMetric)
	prometheus.MustRegister(notificationFailuresTotalMetric)
	prometheus.MustRegister(totalUniqueReviewersPerWeekMetric)
}
