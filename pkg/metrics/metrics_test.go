package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	if err := g.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal not initialized")
	}
	if r.AnalysisRunsTotal == nil {
		t.Error("AnalysisRunsTotal not initialized")
	}
	if r.StoreOperationsTotal == nil {
		t.Error("StoreOperationsTotal not initialized")
	}
	if r.JobRunsTotal == nil {
		t.Error("JobRunsTotal not initialized")
	}
	if r.GetPrometheusRegistry() == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("GET", "/api/nodes", "200", 100*time.Millisecond)
	r.RecordHTTPRequest("GET", "/api/nodes", "200", 10*time.Millisecond)
	r.RecordHTTPRequest("GET", "/api/nodes", "404", 50*time.Millisecond)

	if got := counterValue(t, r.HTTPRequestsTotal.WithLabelValues("GET", "/api/nodes", "200")); got != 2 {
		t.Errorf("200 counter = %v, want 2", got)
	}
	if got := counterValue(t, r.HTTPRequestsTotal.WithLabelValues("GET", "/api/nodes", "404")); got != 1 {
		t.Errorf("404 counter = %v, want 1", got)
	}
}

func TestInFlight(t *testing.T) {
	r := NewRegistry()
	r.IncHTTPRequestsInFlight()
	r.IncHTTPRequestsInFlight()
	r.DecHTTPRequestsInFlight()
	if got := gaugeValue(t, r.HTTPRequestsInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
}

func TestRecordRateLimited(t *testing.T) {
	r := NewRegistry()
	r.RecordRateLimited("GET /api/analytics/metrics")
	r.RecordRateLimited("GET /api/analytics/metrics")
	if got := counterValue(t, r.HTTPRateLimitedTotal.WithLabelValues("GET /api/analytics/metrics")); got != 2 {
		t.Errorf("rate limited = %v, want 2", got)
	}
}

func TestRecordAnalysis(t *testing.T) {
	r := NewRegistry()

	r.RecordAnalysis("metrics", nil, 20*time.Millisecond)
	r.RecordAnalysis("metrics", errors.New("boom"), time.Millisecond)
	r.RecordAnalysis("paths", nil, time.Millisecond)

	if got := counterValue(t, r.AnalysisRunsTotal.WithLabelValues("metrics", "success")); got != 1 {
		t.Errorf("metrics success = %v, want 1", got)
	}
	if got := counterValue(t, r.AnalysisRunsTotal.WithLabelValues("metrics", "error")); got != 1 {
		t.Errorf("metrics error = %v, want 1", got)
	}
}

func TestUpdateNetwork(t *testing.T) {
	r := NewRegistry()
	r.UpdateNetwork(NetworkSnapshot{Nodes: 4, Routes: 5, Density: 5.0 / 12, Bottlenecks: 2, CriticalNodes: 3})
	r.SetHealthScore(72)

	if got := gaugeValue(t, r.NetworkNodes); got != 4 {
		t.Errorf("nodes = %v, want 4", got)
	}
	if got := gaugeValue(t, r.NetworkBottlenecks); got != 2 {
		t.Errorf("bottlenecks = %v, want 2", got)
	}
	if got := gaugeValue(t, r.NetworkHealthScore); got != 72 {
		t.Errorf("health = %v, want 72", got)
	}
}

func TestRecordJobsAndReports(t *testing.T) {
	r := NewRegistry()

	r.RecordReport("file", nil, 2048)
	r.RecordReport("s3", errors.New("denied"), 0)
	r.RecordAlert("health_degraded", "high")
	r.RecordJobRun("report", nil)
	r.SetJobsRegistered(2)

	if got := counterValue(t, r.ReportsGeneratedTotal.WithLabelValues("s3", "error")); got != 1 {
		t.Errorf("s3 errors = %v, want 1", got)
	}
	if got := counterValue(t, r.AlertsPublishedTotal.WithLabelValues("health_degraded", "high")); got != 1 {
		t.Errorf("alerts = %v, want 1", got)
	}
	if got := gaugeValue(t, r.JobsRegistered); got != 2 {
		t.Errorf("jobs = %v, want 2", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.RecordStoreOperation("list_nodes", nil, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{
		"resilience_store_operations_total",
		"resilience_uptime_seconds",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("exposition missing %s", name)
		}
	}
}
