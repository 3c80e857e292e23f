package metrics

import (
	"time"
)

// StatusLabel maps an error to the "status" label value.
func StatusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize, IncHTTPRequestsInFlight and DecHTTPRequestsInFlight
// complete the middleware.MetricsRecorder contract.
func (r *Registry) RecordResponseSize(method, path string, size float64) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(size)
}

func (r *Registry) IncHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Inc() }

// RecordRateLimited counts a request refused by the rate limiter.
func (r *Registry) RecordRateLimited(path string) {
	r.HTTPRateLimitedTotal.WithLabelValues(path).Inc()
}

func (r *Registry) DecHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Dec() }

// RecordAnalysis records one analysis operation ("metrics", "disruption",
// "paths", "reachability", "health").
func (r *Registry) RecordAnalysis(operation string, err error, duration time.Duration) {
	r.AnalysisRunsTotal.WithLabelValues(operation, StatusLabel(err)).Inc()
	r.AnalysisDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// NetworkSnapshot is the shape UpdateNetwork publishes as gauges.
type NetworkSnapshot struct {
	Nodes         int
	Routes        int
	Density       float64
	Bottlenecks   int
	CriticalNodes int
}

// UpdateNetwork replaces the network gauges with the latest analysis.
func (r *Registry) UpdateNetwork(s NetworkSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.NetworkNodes.Set(float64(s.Nodes))
	r.NetworkRoutes.Set(float64(s.Routes))
	r.NetworkDensity.Set(s.Density)
	r.NetworkBottlenecks.Set(float64(s.Bottlenecks))
	r.NetworkCriticalNodes.Set(float64(s.CriticalNodes))
}

func (r *Registry) SetHealthScore(score float64) {
	r.NetworkHealthScore.Set(score)
}

// RecordStoreOperation records a store operation
func (r *Registry) RecordStoreOperation(operation string, err error, duration time.Duration) {
	r.StoreOperationsTotal.WithLabelValues(operation, StatusLabel(err)).Inc()
	r.StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (r *Registry) RecordReport(sink string, err error, size int) {
	r.ReportsGeneratedTotal.WithLabelValues(sink, StatusLabel(err)).Inc()
	if err == nil {
		r.ReportBytes.Observe(float64(size))
	}
}

func (r *Registry) RecordAlert(kind, severity string) {
	r.AlertsPublishedTotal.WithLabelValues(kind, severity).Inc()
}

func (r *Registry) RecordJobRun(job string, err error) {
	r.JobRunsTotal.WithLabelValues(job, StatusLabel(err)).Inc()
}

func (r *Registry) SetJobsRegistered(n int) {
	r.JobsRegistered.Set(float64(n))
}

// SetUptime publishes the time elapsed since start.
func (r *Registry) SetUptime(start time.Time) {
	r.UptimeSeconds.Set(time.Since(start).Seconds())
}
