package algorithms

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-resilience/pkg/graph"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
)

// DefaultTopRoutes is how many critical routes a MetricsResult carries by default.
const DefaultTopRoutes = 10

// MetricsConfig configures ComputeMetrics.
type MetricsConfig struct {
	Classifier ClassifierConfig
	Closeness  ClosenessOptions
	Dangling   graph.DanglingPolicy
	// TopRoutes caps CriticalRoutes; 0 means DefaultTopRoutes, negative disables.
	TopRoutes int
	Logger    logging.Logger
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Classifier: DefaultClassifierConfig(),
		TopRoutes:  DefaultTopRoutes,
	}
}

// NodeMetrics is the per-node part of a MetricsResult.
type NodeMetrics struct {
	DegreeCentrality      float64 `json:"degreeCentrality"`
	BetweennessCentrality float64 `json:"betweennessCentrality"`
	ClosenessCentrality   float64 `json:"closenessCentrality"`
	ClusteringCoefficient float64 `json:"clusteringCoefficient"`
	InDegree              int     `json:"inDegree"`
	OutDegree             int     `json:"outDegree"`
	TotalDegree           int     `json:"totalDegree"`
	IsBottleneck          bool    `json:"isBottleneck"`
	IsCritical            bool    `json:"isCritical"`
}

// NetworkStats summarises the whole network.
type NetworkStats struct {
	TotalNodes                  int     `json:"totalNodes"`
	TotalEdges                  int     `json:"totalEdges"`
	Density                     float64 `json:"density"`
	AverageDegree               float64 `json:"averageDegree"`
	GlobalClusteringCoefficient float64 `json:"globalClusteringCoefficient"`
}

// MetricsResult is the consolidated output of one analysis run.
type MetricsResult struct {
	NodeMetrics    map[string]NodeMetrics `json:"nodeMetrics"`
	NetworkStats   NetworkStats           `json:"networkStats"`
	Bottlenecks    []Bottleneck           `json:"bottlenecks"`
	CriticalNodes  []CriticalNode         `json:"criticalNodes"`
	CriticalRoutes []CriticalRoute        `json:"criticalRoutes"`

	// Graph is the network the metrics were computed over.
	Graph *graph.Graph `json:"-"`
}

// ComputeMetrics builds the network from records and analyses it.
func ComputeMetrics(ctx context.Context, nodes []graph.NodeRecord, routes []graph.RouteRecord, cfg MetricsConfig) (*MetricsResult, error) {
	if len(nodes) == 0 {
		return nil, ErrEmptyGraph
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	g, err := graph.Build(nodes, routes,
		graph.WithDanglingPolicy(cfg.Dangling),
		graph.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	return ComputeGraphMetrics(ctx, g, cfg)
}

// ComputeGraphMetrics runs every centrality measure over g, classifies the
// nodes and assembles network statistics. The centrality measures do not
// depend on each other and run concurrently.
func ComputeGraphMetrics(ctx context.Context, g *graph.Graph, cfg MetricsConfig) (*MetricsResult, error) {
	if g == nil {
		return nil, ErrInvalidRequest
	}
	if g.Order() == 0 {
		return nil, ErrEmptyGraph
	}
	if err := cfg.Classifier.Validate(); err != nil {
		return nil, err
	}

	var (
		degree, betweenness, closeness, clustering map[string]float64
		edgeBetweenness                            map[graph.EdgeKey]float64
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		degree, err = DegreeCentrality(g)
		return err
	})
	eg.Go(func() error {
		if err := egCtx.Err(); err != nil {
			return err
		}
		betweenness, edgeBetweenness = normalizedBrandes(g)
		return nil
	})
	eg.Go(func() error {
		if err := egCtx.Err(); err != nil {
			return err
		}
		var err error
		closeness, err = ClosenessCentrality(g, cfg.Closeness)
		return err
	})
	eg.Go(func() error {
		var err error
		clustering, err = LocalClustering(g)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("compute centrality: %w", err)
	}

	bottlenecks := IdentifyBottlenecks(g, betweenness, cfg.Classifier.BottleneckThreshold)
	critical := IdentifyCriticalNodes(g, degree, betweenness, cfg.Classifier.CriticalThreshold)

	isBottleneck := make(map[string]bool, len(bottlenecks))
	for _, b := range bottlenecks {
		isBottleneck[b.NodeID] = true
	}
	isCritical := make(map[string]bool, len(critical))
	for _, c := range critical {
		isCritical[c.NodeID] = true
	}

	ids := g.NodeIDs()
	perNode := make(map[string]NodeMetrics, len(ids))
	for _, id := range ids {
		in, out := g.InDegree(id), g.OutDegree(id)
		perNode[id] = NodeMetrics{
			DegreeCentrality:      degree[id],
			BetweennessCentrality: betweenness[id],
			ClosenessCentrality:   closeness[id],
			ClusteringCoefficient: clustering[id],
			InDegree:              in,
			OutDegree:             out,
			TotalDegree:           in + out,
			IsBottleneck:          isBottleneck[id],
			IsCritical:            isCritical[id],
		}
	}

	topRoutes := cfg.TopRoutes
	if topRoutes == 0 {
		topRoutes = DefaultTopRoutes
	}

	return &MetricsResult{
		NodeMetrics:    perNode,
		NetworkStats:   computeNetworkStats(g, clustering),
		Bottlenecks:    bottlenecks,
		CriticalNodes:  critical,
		CriticalRoutes: RankCriticalRoutes(edgeBetweenness, topRoutes),
		Graph:          g,
	}, nil
}

// computeNetworkStats derives density e/(n(n-1)) and average degree 2e/n.
// Both are 0 for a single-node network.
func computeNetworkStats(g *graph.Graph, clustering map[string]float64) NetworkStats {
	n, e := g.Order(), g.Size()
	stats := NetworkStats{
		TotalNodes:                  n,
		TotalEdges:                  e,
		GlobalClusteringCoefficient: GlobalClustering(g, clustering),
	}
	if n > 1 {
		stats.Density = float64(e) / float64(n*(n-1))
		stats.AverageDegree = 2 * float64(e) / float64(n)
	}
	return stats
}
