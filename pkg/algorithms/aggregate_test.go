package algorithms

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dd0wney/cluso-resilience/pkg/graph"
)

func TestComputeMetricsChain(t *testing.T) {
	nodes := nodeRecords("N1", "N2", "N3")
	routes := routeRecords([2]string{"N1", "N2"}, [2]string{"N2", "N3"})

	result, err := ComputeMetrics(context.Background(), nodes, routes, DefaultMetricsConfig())
	if err != nil {
		t.Fatalf("ComputeMetrics failed: %v", err)
	}

	stats := result.NetworkStats
	if stats.TotalNodes != 3 || stats.TotalEdges != 2 {
		t.Errorf("Unexpected totals: %+v", stats)
	}
	if !approxEqual(stats.Density, 2.0/6.0) {
		t.Errorf("Expected density 1/3, got %v", stats.Density)
	}
	if !approxEqual(stats.AverageDegree, 4.0/3.0) {
		t.Errorf("Expected average degree 4/3, got %v", stats.AverageDegree)
	}
	if stats.GlobalClusteringCoefficient != 0 {
		t.Errorf("Expected zero clustering on a chain, got %v", stats.GlobalClusteringCoefficient)
	}

	n2 := result.NodeMetrics["N2"]
	if !n2.IsBottleneck || !n2.IsCritical {
		t.Errorf("Expected N2 to be both bottleneck and critical: %+v", n2)
	}
	if n2.InDegree != 1 || n2.OutDegree != 1 || n2.TotalDegree != 2 {
		t.Errorf("Unexpected N2 degrees: %+v", n2)
	}
	if !approxEqual(n2.DegreeCentrality, 1.0) || !approxEqual(n2.BetweennessCentrality, 0.5) {
		t.Errorf("Unexpected N2 centrality: %+v", n2)
	}
	if result.NodeMetrics["N1"].IsBottleneck {
		t.Error("N1 should not be a bottleneck")
	}

	if len(result.Bottlenecks) != 1 || len(result.CriticalNodes) != 3 {
		t.Errorf("Expected 1 bottleneck and 3 critical nodes, got %d and %d",
			len(result.Bottlenecks), len(result.CriticalNodes))
	}
	if len(result.CriticalRoutes) != 2 {
		t.Errorf("Expected 2 critical routes, got %d", len(result.CriticalRoutes))
	}
	if result.Graph == nil || result.Graph.Order() != 3 {
		t.Error("Expected result to carry the built graph")
	}
}

func TestComputeMetricsEmpty(t *testing.T) {
	_, err := ComputeMetrics(context.Background(), nil, nil, DefaultMetricsConfig())
	if !errors.Is(err, ErrEmptyGraph) {
		t.Errorf("Expected ErrEmptyGraph, got %v", err)
	}

	// Routes alone do not make a network.
	_, err = ComputeMetrics(context.Background(), nil, routeRecords([2]string{"A", "B"}), DefaultMetricsConfig())
	if !errors.Is(err, ErrEmptyGraph) {
		t.Errorf("Expected ErrEmptyGraph, got %v", err)
	}
}

func TestComputeMetricsSingleNode(t *testing.T) {
	result, err := ComputeMetrics(context.Background(), nodeRecords("ONLY"), nil, DefaultMetricsConfig())
	if err != nil {
		t.Fatalf("ComputeMetrics failed: %v", err)
	}
	if result.NetworkStats.Density != 0 || result.NetworkStats.AverageDegree != 0 {
		t.Errorf("Expected zero density and average degree, got %+v", result.NetworkStats)
	}
	if len(result.Bottlenecks) != 0 || len(result.CriticalNodes) != 0 {
		t.Error("Expected no classifications for a single node")
	}
}

func TestComputeMetricsIsolatedNodes(t *testing.T) {
	result, err := ComputeMetrics(context.Background(), nodeRecords("A", "B", "C"), nil, DefaultMetricsConfig())
	if err != nil {
		t.Fatalf("ComputeMetrics failed: %v", err)
	}
	for id, m := range result.NodeMetrics {
		if m != (NodeMetrics{}) {
			t.Errorf("Expected zero metrics for isolated node %s, got %+v", id, m)
		}
	}
	if len(result.Bottlenecks) != 0 || len(result.CriticalNodes) != 0 || len(result.CriticalRoutes) != 0 {
		t.Error("Expected no classifications on an edgeless network")
	}
}

func TestComputeMetricsInvalidConfig(t *testing.T) {
	cfg := DefaultMetricsConfig()
	cfg.Classifier.CriticalThreshold = 0

	_, err := ComputeMetrics(context.Background(), nodeRecords("A"), nil, cfg)
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest, got %v", err)
	}
}

func TestComputeMetricsStrictDangling(t *testing.T) {
	cfg := DefaultMetricsConfig()
	cfg.Dangling = graph.DanglingError

	_, err := ComputeMetrics(context.Background(), nodeRecords("A"), routeRecords([2]string{"A", "B"}), cfg)
	if !errors.Is(err, graph.ErrDanglingEdge) {
		t.Errorf("Expected ErrDanglingEdge, got %v", err)
	}
}

func TestComputeMetricsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ComputeMetrics(ctx, nodeRecords("A", "B"), routeRecords([2]string{"A", "B"}), DefaultMetricsConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestComputeMetricsIdempotent(t *testing.T) {
	nodes := nodeRecords("N1", "N2", "N3", "N4", "N5")
	routes := routeRecords(
		[2]string{"N1", "N2"}, [2]string{"N1", "N3"}, [2]string{"N2", "N4"},
		[2]string{"N3", "N4"}, [2]string{"N4", "N5"}, [2]string{"N5", "N1"})

	first, err := ComputeMetrics(context.Background(), nodes, routes, DefaultMetricsConfig())
	if err != nil {
		t.Fatalf("ComputeMetrics failed: %v", err)
	}
	second, err := ComputeMetrics(context.Background(), nodes, routes, DefaultMetricsConfig())
	if err != nil {
		t.Fatalf("ComputeMetrics failed: %v", err)
	}

	first.Graph, second.Graph = nil, nil
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical results for identical input")
	}
}
