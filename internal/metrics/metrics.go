package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	UploadCount     prometheus.Counter
	EmailsProcessed prometheus.Counter
	EmailsLeaked    prometheus.Counter
	EmailsFresh     prometheus.Counter
	EmailsInvalid   prometheus.Counter
	TasksCompleted  prometheus.Counter
	TasksFailed     prometheus.Counter
	LookupDuration  prometheus.Histogram
	ActiveTasks     prometheus.Gauge
}

// NewMetrics creates new Prometheus metrics on the default registerer
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates new Prometheus metrics on the given registerer
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UploadCount: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadcheck_upload_count",
			Help: "Total number of accepted upload batches",
		}),
		EmailsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadcheck_emails_processed",
			Help: "Total number of emails checked against the leak corpus",
		}),
		EmailsLeaked: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadcheck_emails_leaked",
			Help: "Total number of emails found in the leak corpus",
		}),
		EmailsFresh: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadcheck_emails_fresh",
			Help: "Total number of emails absent from the leak corpus",
		}),
		EmailsInvalid: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadcheck_emails_invalid",
			Help: "Total number of malformed upload lines dropped",
		}),
		TasksCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadcheck_tasks_completed",
			Help: "Total number of classification tasks completed",
		}),
		TasksFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadcheck_tasks_failed",
			Help: "Total number of classification tasks failed",
		}),
		LookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "leadcheck_lookup_duration_seconds",
			Help:    "Time spent on corpus existence lookups",
			Buckets: prometheus.DefBuckets,
		}),
		ActiveTasks: factory.NewGauge(prometheus.GaugeOpts{
			Name: "leadcheck_active_tasks",
			Help: "Number of tasks currently queued or processing",
		}),
	}
}
