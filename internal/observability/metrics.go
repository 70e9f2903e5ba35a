package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	adminRequestsTotal  *prometheus.CounterVec
	adminLatencySeconds *prometheus.HistogramVec
	adminErrorsTotal    *prometheus.CounterVec
	assistantCommands   *prometheus.CounterVec
	notificationsSent   *prometheus.CounterVec
	scheduledJobRuns    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API and its jobs.
func RegisterMetrics() {
	registerOnce.Do(func() {
		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		assistantCommands = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_commands_total",
			Help: "Admin assistant prompts by classified intent and outcome.",
		}, []string{"intent", "outcome"})

		notificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "WhatsApp notifications by kind and delivery outcome.",
		}, []string{"kind", "outcome"})

		scheduledJobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduled_job_runs_total",
			Help: "Runs of scheduled jobs by job name and outcome.",
		}, []string{"job", "outcome"})

		prometheus.MustRegister(adminRequestsTotal, adminLatencySeconds, adminErrorsTotal, assistantCommands, notificationsSent, scheduledJobRuns)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}

// AssistantCommands exposes the counter of assistant prompts.
func AssistantCommands() *prometheus.CounterVec {
	RegisterMetrics()
	return assistantCommands
}

// NotificationsSent exposes the counter of outgoing notifications.
func NotificationsSent() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsSent
}

// JobRuns exposes the counter of scheduled job runs.
func JobRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return scheduledJobRuns
}
