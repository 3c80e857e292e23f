package resilience

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/graph"
)

// DisruptionReport is a simulated removal together with the rerouting
// options that remain afterwards.
type DisruptionReport struct {
	Result *algorithms.DisruptionResult `json:"result"`
	// AlternativePaths is only populated for route removals. Paths are
	// searched on the disrupted network so the removed route never appears.
	AlternativePaths []algorithms.PathSummary `json:"alternativePaths"`
	Recommendation   string                   `json:"recommendation"`
}

// SimulateDisruption removes target from a copy of g and, for a route
// removal, looks for up to maxPaths ways around it.
func SimulateDisruption(g *graph.Graph, target algorithms.DisruptionTarget, maxPaths int, opts ...algorithms.DisruptionOption) (*DisruptionReport, error) {
	return SimulateDisruptionContext(context.Background(), g, target, maxPaths, opts...)
}

// SimulateDisruptionContext is SimulateDisruption with a cancellable
// alternative-path search.
func SimulateDisruptionContext(ctx context.Context, g *graph.Graph, target algorithms.DisruptionTarget, maxPaths int, opts ...algorithms.DisruptionOption) (*DisruptionReport, error) {
	result, err := algorithms.SimulateDisruption(g, target, opts...)
	if err != nil {
		return nil, err
	}

	report := &DisruptionReport{
		Result:           result,
		AlternativePaths: make([]algorithms.PathSummary, 0),
	}
	if target.Kind == algorithms.DisruptEdge {
		paths, err := algorithms.FindAlternativePathsContext(ctx, result.Graph, target.EdgeSource, target.EdgeTarget, maxPaths)
		if err != nil {
			return nil, fmt.Errorf("alternative paths: %w", err)
		}
		report.AlternativePaths = algorithms.SummarizePaths(result.Graph, paths)
	}
	report.Recommendation = adviseDisruption(result, len(report.AlternativePaths))
	return report, nil
}

func adviseDisruption(result *algorithms.DisruptionResult, alternatives int) string {
	if !result.Applied {
		return "Disruption target not found in the network; no impact"
	}
	if result.Target.Kind == algorithms.DisruptEdge {
		if alternatives > 0 {
			return fmt.Sprintf("%d alternative route(s) available", alternatives)
		}
		return "Critical disruption - no alternative routes available"
	}
	if n := len(result.AffectedNodes); n > 0 {
		return fmt.Sprintf("%d facility(ies) left without any route - activate backup suppliers or routes", n)
	}
	return "No facility is isolated by this disruption"
}
