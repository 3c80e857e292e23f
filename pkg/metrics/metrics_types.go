package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the service.
type Registry struct {
	// HTTP
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec
	HTTPRateLimitedTotal  *prometheus.CounterVec

	// Analysis
	AnalysisRunsTotal    *prometheus.CounterVec
	AnalysisDuration     *prometheus.HistogramVec
	NetworkNodes         prometheus.Gauge
	NetworkRoutes        prometheus.Gauge
	NetworkDensity       prometheus.Gauge
	NetworkBottlenecks   prometheus.Gauge
	NetworkCriticalNodes prometheus.Gauge
	NetworkHealthScore   prometheus.Gauge

	// Store
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec

	// Reports, alerts and scheduled jobs
	ReportsGeneratedTotal *prometheus.CounterVec
	ReportBytes           prometheus.Histogram
	AlertsPublishedTotal  *prometheus.CounterVec
	JobRunsTotal          *prometheus.CounterVec
	JobsRegistered        prometheus.Gauge

	// System
	UptimeSeconds prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every metric initialized, plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
	}

	r.initServerMetrics()
	r.initAnalysisMetrics()
	r.initStoreMetrics()
	r.initJobMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
