package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initJobMetrics() {
	r.ReportsGeneratedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_reports_generated_total",
			Help: "Reports written, by sink and outcome",
		},
		[]string{"sink", "status"},
	)

	r.ReportBytes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resilience_report_bytes",
			Help:    "Encoded report size in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	r.AlertsPublishedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_alerts_published_total",
			Help: "Alerts published, by kind and severity",
		},
		[]string{"kind", "severity"},
	)

	r.JobRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_job_runs_total",
			Help: "Scheduled job executions, by job name and outcome",
		},
		[]string{"job", "status"},
	)

	r.JobsRegistered = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "resilience_jobs_registered",
			Help: "Jobs currently held by the scheduler",
		},
	)
}
