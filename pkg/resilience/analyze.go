package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/graph"
)

// NetworkSource yields the persisted network. storage.Store satisfies it.
type NetworkSource interface {
	ListNodes(ctx context.Context) ([]graph.NodeRecord, error)
	ListRoutes(ctx context.Context) ([]graph.RouteRecord, error)
}

// Snapshot is one full pass over a network: the records it was built from,
// the metrics and the health grade.
type Snapshot struct {
	Nodes      []graph.NodeRecord
	Routes     []graph.RouteRecord
	Metrics    *algorithms.MetricsResult
	Assessment *Assessment
}

// Analyze computes metrics and grades the network in one step.
func Analyze(ctx context.Context, nodes []graph.NodeRecord, routes []graph.RouteRecord, cfg algorithms.MetricsConfig) (*Snapshot, error) {
	result, err := algorithms.ComputeMetrics(ctx, nodes, routes, cfg)
	if err != nil {
		return nil, err
	}
	assessment, err := Assess(nodes, routes, result)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Nodes: nodes, Routes: routes, Metrics: result, Assessment: assessment}, nil
}

// Load reads the network from src.
func Load(ctx context.Context, src NetworkSource) ([]graph.NodeRecord, []graph.RouteRecord, error) {
	nodes, err := src.ListNodes(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load nodes: %w", err)
	}
	routes, err := src.ListRoutes(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load routes: %w", err)
	}
	return nodes, routes, nil
}

// AnalyzeSource loads the network from src and analyses it.
func AnalyzeSource(ctx context.Context, src NetworkSource, cfg algorithms.MetricsConfig) (*Snapshot, error) {
	nodes, routes, err := Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return Analyze(ctx, nodes, routes, cfg)
}

// StoredMetrics converts a metrics run into the per-node form written back
// to the store, stamped with computedAt.
func StoredMetrics(result *algorithms.MetricsResult, computedAt time.Time) map[string]graph.StoredMetrics {
	at := computedAt.UTC()
	out := make(map[string]graph.StoredMetrics, len(result.NodeMetrics))
	for id, m := range result.NodeMetrics {
		out[id] = graph.StoredMetrics{
			DegreeCentrality:      m.DegreeCentrality,
			BetweennessCentrality: m.BetweennessCentrality,
			ClosenessCentrality:   m.ClosenessCentrality,
			ClusteringCoefficient: m.ClusteringCoefficient,
			IsBottleneck:          m.IsBottleneck,
			IsCritical:            m.IsCritical,
			ComputedAt:            &at,
		}
	}
	return out
}
