// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StatusChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_checks_total",
			Help: "Total number of status check requests by resolved status",
		},
		[]string{"status"},
	)

	RequestsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requests_rejected_total",
			Help: "Total number of requests rejected before resolution",
		},
		[]string{"endpoint", "reason"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notification emails submitted",
		},
		[]string{"provider"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total number of notification emails that failed at the transport",
		},
		[]string{"provider"},
	)

	RecordsIngested = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "records_ingested",
			Help: "Number of records in the current index snapshot",
		},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "request_duration_seconds",
			Help: "Duration of request handling in seconds",
		},
		[]string{"endpoint"},
	)
)
