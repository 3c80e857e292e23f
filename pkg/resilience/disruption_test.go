package resilience

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/graph"
)

func buildGraph(t *testing.T, src memSource, extra ...[2]string) *graph.Graph {
	t.Helper()
	routes := append([]graph.RouteRecord(nil), src.routes...)
	for _, p := range extra {
		r := graph.RouteRecord{Source: p[0], Target: p[1], Cost: 1}
		r.ApplyDefaults()
		routes = append(routes, r)
	}
	g, err := graph.Build(src.nodes, routes)
	require.NoError(t, err)
	return g
}

func TestSimulateDisruption_EdgeWithBypass(t *testing.T) {
	g := buildGraph(t, diamond(), [2]string{"N2", "N3"})

	report, err := SimulateDisruption(g, algorithms.EdgeRemoval("N2", "N4"), 5)
	require.NoError(t, err)

	require.Len(t, report.AlternativePaths, 1)
	assert.Equal(t, algorithms.Path{"N2", "N3", "N4"}, report.AlternativePaths[0].Path)
	assert.Equal(t, "1 alternative route(s) available", report.Recommendation)
	assert.Equal(t, 5, report.Result.EdgeCountBefore)
	assert.Equal(t, 4, report.Result.EdgeCountAfter)
}

func TestSimulateDisruption_EdgeWithoutBypass(t *testing.T) {
	g := buildGraph(t, diamond())

	report, err := SimulateDisruption(g, algorithms.EdgeRemoval("N1", "N2"), 5)
	require.NoError(t, err)

	assert.Empty(t, report.AlternativePaths)
	assert.Equal(t, "Critical disruption - no alternative routes available", report.Recommendation)
}

func TestSimulateDisruption_NodeIsolatesNeighbours(t *testing.T) {
	var src memSource
	for _, id := range []string{"A", "B", "C"} {
		n := graph.NodeRecord{NodeID: id, Name: id, Type: graph.NodeTypeSupplier}
		n.ApplyDefaults()
		src.nodes = append(src.nodes, n)
	}
	g := buildGraph(t, src, [2]string{"A", "B"}, [2]string{"B", "C"})

	report, err := SimulateDisruption(g, algorithms.NodeRemoval("B"), 5)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "C"}, report.Result.AffectedNodes)
	assert.Empty(t, report.AlternativePaths)
	assert.Contains(t, report.Recommendation, "2 facility(ies)")
}

func TestSimulateDisruption_NodeKeepsNetworkConnected(t *testing.T) {
	g := buildGraph(t, diamond())

	report, err := SimulateDisruption(g, algorithms.NodeRemoval("N1"), 5)
	require.NoError(t, err)

	assert.Empty(t, report.Result.AffectedNodes)
	assert.Equal(t, "No facility is isolated by this disruption", report.Recommendation)
}

func TestSimulateDisruption_MissingTarget(t *testing.T) {
	g := buildGraph(t, diamond())

	report, err := SimulateDisruption(g, algorithms.NodeRemoval("GHOST"), 5)
	require.NoError(t, err)
	assert.False(t, report.Result.Applied)
	assert.Contains(t, report.Recommendation, "not found")

	_, err = SimulateDisruption(g, algorithms.NodeRemoval("GHOST"), 5,
		algorithms.WithMissingTargetPolicy(algorithms.MissingTargetError))
	assert.ErrorIs(t, err, algorithms.ErrNotFound)
}

func TestSimulateDisruptionContext_Cancelled(t *testing.T) {
	g := buildGraph(t, diamond(), [2]string{"N2", "N3"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SimulateDisruptionContext(ctx, g, algorithms.EdgeRemoval("N2", "N4"), 5)
	assert.ErrorIs(t, err, context.Canceled)
}
