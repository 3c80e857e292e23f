package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initAnalysisMetrics() {
	r.AnalysisRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_analysis_runs_total",
			Help: "Analysis operations by kind and outcome",
		},
		[]string{"operation", "status"},
	)

	// Brandes is O(V*E); large networks take seconds.
	r.AnalysisDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resilience_analysis_duration_seconds",
			Help:    "Analysis operation duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"operation"},
	)

	r.NetworkNodes = promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{
		Name: "resilience_network_nodes",
		Help: "Nodes in the most recently analysed network",
	})
	r.NetworkRoutes = promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{
		Name: "resilience_network_routes",
		Help: "Routes in the most recently analysed network",
	})
	r.NetworkDensity = promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{
		Name: "resilience_network_density",
		Help: "Directed density of the most recently analysed network",
	})
	r.NetworkBottlenecks = promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{
		Name: "resilience_network_bottlenecks",
		Help: "Bottleneck nodes found by the most recent analysis",
	})
	r.NetworkCriticalNodes = promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{
		Name: "resilience_network_critical_nodes",
		Help: "Critical nodes found by the most recent analysis",
	})
	r.NetworkHealthScore = promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{
		Name: "resilience_network_health_score",
		Help: "Most recent network health score (0-100)",
	})
}
