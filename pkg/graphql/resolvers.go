package graphql

import (
	"fmt"
	"sort"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
	"github.com/dd0wney/cluso-resilience/pkg/validation"
)

// nodeMetricsView flattens a node's metrics with its id.
type nodeMetricsView struct {
	NodeID                string  `json:"nodeId"`
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

func newNodeMetricsView(id string, m algorithms.NodeMetrics) nodeMetricsView {
	return nodeMetricsView{
		NodeID:                id,
		DegreeCentrality:      m.DegreeCentrality,
		BetweennessCentrality: m.BetweennessCentrality,
		ClosenessCentrality:   m.ClosenessCentrality,
		ClusteringCoefficient: m.ClusteringCoefficient,
		InDegree:              m.InDegree,
		OutDegree:             m.OutDegree,
		TotalDegree:           m.TotalDegree,
		IsBottleneck:          m.IsBottleneck,
		IsCritical:            m.IsCritical,
	}
}

type disruptionView struct {
	Kind             string                   `json:"kind"`
	Element          string                   `json:"element"`
	Applied          bool                     `json:"applied"`
	AffectedNodes    []string                 `json:"affectedNodes"`
	NodesBefore      int                      `json:"nodesBefore"`
	NodesAfter       int                      `json:"nodesAfter"`
	EdgesBefore      int                      `json:"edgesBefore"`
	EdgesAfter       int                      `json:"edgesAfter"`
	AlternativePaths []algorithms.PathSummary `json:"alternativePaths"`
	Recommendation   string                   `json:"recommendation"`
}

// applyLimit returns at most limit items; a negative limit returns all of them.
func applyLimit[T any](items []T, limit int) []T {
	if limit < 0 || limit >= len(items) {
		return items
	}
	return items[:limit]
}

func intArg(p graphql.ResolveParams, name string, def int) int {
	if v, ok := p.Args[name].(int); ok {
		return v
	}
	return def
}

func stringArg(p graphql.ResolveParams, name string) string {
	s, _ := p.Args[name].(string)
	return s
}

func (r *Resolver) snapshot(p graphql.ResolveParams) (*resilience.Snapshot, error) {
	return r.loader(p.Context).analyze(p.Context)
}

func (r *Resolver) resolveNetworkStats(p graphql.ResolveParams) (any, error) {
	snap, err := r.snapshot(p)
	if err != nil {
		return nil, err
	}
	return snap.Metrics.NetworkStats, nil
}

func (r *Resolver) resolveNodeMetrics(p graphql.ResolveParams) (any, error) {
	snap, err := r.snapshot(p)
	if err != nil {
		return nil, err
	}
	id := stringArg(p, "nodeId")
	m, ok := snap.Metrics.NodeMetrics[id]
	if !ok {
		return nil, fmt.Errorf("%w: node %q", algorithms.ErrNotFound, id)
	}
	return newNodeMetricsView(id, m), nil
}

func (r *Resolver) resolveAllNodeMetrics(p graphql.ResolveParams) (any, error) {
	snap, err := r.snapshot(p)
	if err != nil {
		return nil, err
	}
	views := make([]nodeMetricsView, 0, len(snap.Metrics.NodeMetrics))
	for id, m := range snap.Metrics.NodeMetrics {
		views = append(views, newNodeMetricsView(id, m))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].NodeID < views[j].NodeID })
	return applyLimit(views, intArg(p, "limit", -1)), nil
}

func (r *Resolver) resolveBottlenecks(p graphql.ResolveParams) (any, error) {
	snap, err := r.snapshot(p)
	if err != nil {
		return nil, err
	}
	return applyLimit(snap.Metrics.Bottlenecks, intArg(p, "limit", -1)), nil
}

func (r *Resolver) resolveCriticalNodes(p graphql.ResolveParams) (any, error) {
	snap, err := r.snapshot(p)
	if err != nil {
		return nil, err
	}
	return applyLimit(snap.Metrics.CriticalNodes, intArg(p, "limit", -1)), nil
}

func (r *Resolver) resolveCriticalRoutes(p graphql.ResolveParams) (any, error) {
	snap, err := r.snapshot(p)
	if err != nil {
		return nil, err
	}
	return applyLimit(snap.Metrics.CriticalRoutes, intArg(p, "limit", -1)), nil
}

func (r *Resolver) resolveHealth(p graphql.ResolveParams) (any, error) {
	snap, err := r.snapshot(p)
	if err != nil {
		return nil, err
	}
	return snap.Assessment, nil
}

func (r *Resolver) resolveAlternativePaths(p graphql.ResolveParams) (any, error) {
	req := validation.PathRequest{
		Source:   stringArg(p, "source"),
		Target:   stringArg(p, "target"),
		MaxPaths: intArg(p, "maxPaths", 0),
	}
	if err := validation.ValidatePathRequest(&req); err != nil {
		return nil, err
	}
	req.MaxPaths = validation.DefaultOrInt(req.MaxPaths, r.MaxPaths)

	g, err := r.loader(p.Context).graph(p.Context)
	if err != nil {
		return nil, err
	}
	if !g.HasNode(req.Source) || !g.HasNode(req.Target) {
		return nil, fmt.Errorf("%w: source or target node not in network", algorithms.ErrNotFound)
	}
	paths, err := algorithms.FindAlternativePathsContext(p.Context, g, req.Source, req.Target, req.MaxPaths)
	if err != nil {
		return nil, err
	}
	return algorithms.SummarizePaths(g, paths), nil
}

func (r *Resolver) resolveDisruption(p graphql.ResolveParams) (any, error) {
	req := validation.DisruptionRequest{
		NodeID:     stringArg(p, "nodeId"),
		EdgeSource: stringArg(p, "edgeSource"),
		EdgeTarget: stringArg(p, "edgeTarget"),
	}
	if err := validation.ValidateDisruptionRequest(&req); err != nil {
		return nil, err
	}
	target, err := algorithms.NewDisruptionTarget(req.NodeID, req.EdgeSource, req.EdgeTarget)
	if err != nil {
		return nil, err
	}

	g, err := r.loader(p.Context).graph(p.Context)
	if err != nil {
		return nil, err
	}
	report, err := resilience.SimulateDisruptionContext(p.Context, g, target, r.MaxPaths, r.Disruption...)
	if err != nil {
		return nil, err
	}

	res := report.Result
	return disruptionView{
		Kind:             string(target.Kind),
		Element:          target.String(),
		Applied:          res.Applied,
		AffectedNodes:    res.AffectedNodes,
		NodesBefore:      res.NodeCountBefore,
		NodesAfter:       res.NodeCountAfter,
		EdgesBefore:      res.EdgeCountBefore,
		EdgesAfter:       res.EdgeCountAfter,
		AlternativePaths: report.AlternativePaths,
		Recommendation:   report.Recommendation,
	}, nil
}
