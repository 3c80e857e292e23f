package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request metrics are labelled with the ServeMux pattern rather than the raw
// path, so /api/nodes/{nodeId} is one series.
var requestLabels = []string{"method", "path", "status"}

func (r *Registry) initServerMetrics() {
	f := promauto.With(r.registry)

	r.HTTPRequestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "resilience_http_requests_total",
		Help: "HTTP requests served, by route pattern and status",
	}, requestLabels)
	r.HTTPRequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Name: "resilience_http_request_duration_seconds",
		Help: "HTTP request latency in seconds",
		// Analytics requests run a full network analysis, so the upper
		// buckets reach well past the defaults.
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, requestLabels)
	r.HTTPRequestsInFlight = f.NewGauge(prometheus.GaugeOpts{
		Name: "resilience_http_requests_in_flight",
		Help: "HTTP requests currently being served",
	})
	r.HTTPResponseSizeBytes = f.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "resilience_http_response_size_bytes",
		Help:    "HTTP response body size in bytes",
		Buckets: prometheus.ExponentialBuckets(128, 8, 6),
	}, []string{"method", "path"})
	r.HTTPRateLimitedTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "resilience_http_rate_limited_total",
		Help: "Analytics requests refused by the per-client rate limiter",
	}, []string{"path"})

	r.UptimeSeconds = f.NewGauge(prometheus.GaugeOpts{
		Name: "resilience_uptime_seconds",
		Help: "Seconds since the server started",
	})
}
