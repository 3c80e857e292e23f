package algorithms

import (
	"fmt"
	"math"
	"testing"

	"github.com/dd0wney/cluso-resilience/pkg/graph"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func nodeRecords(ids ...string) []graph.NodeRecord {
	recs := make([]graph.NodeRecord, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, graph.NodeRecord{
			NodeID: id,
			Name:   "Facility " + id,
			Type:   graph.NodeTypeWarehouse,
			Status: graph.NodeActive,
		})
	}
	return recs
}

func routeRecords(pairs ...[2]string) []graph.RouteRecord {
	recs := make([]graph.RouteRecord, 0, len(pairs))
	for _, p := range pairs {
		recs = append(recs, graph.RouteRecord{
			Source:    p[0],
			Target:    p[1],
			Distance:  100,
			Cost:      10,
			Time:      2,
			Status:    graph.RouteActive,
			RiskLevel: graph.RiskLow,
		})
	}
	return recs
}

func buildTestGraph(t *testing.T, ids []string, pairs ...[2]string) *graph.Graph {
	t.Helper()
	g, err := graph.Build(nodeRecords(ids...), routeRecords(pairs...))
	if err != nil {
		t.Fatalf("Failed to build graph: %v", err)
	}
	return g
}

// setupChainTestGraph creates N1 -> N2 -> N3
func setupChainTestGraph(t *testing.T) *graph.Graph {
	t.Helper()
	return buildTestGraph(t, []string{"N1", "N2", "N3"}, [2]string{"N1", "N2"}, [2]string{"N2", "N3"})
}

// setupDiamondTestGraph creates N1 -> {N2, N3} -> N4
func setupDiamondTestGraph(t *testing.T) *graph.Graph {
	t.Helper()
	return buildTestGraph(t, []string{"N1", "N2", "N3", "N4"},
		[2]string{"N1", "N2"}, [2]string{"N1", "N3"},
		[2]string{"N2", "N4"}, [2]string{"N3", "N4"})
}

// setupCycleTestGraph creates a directed cycle C0 -> C1 -> ... -> C(n-1) -> C0
func setupCycleTestGraph(t *testing.T, n int) *graph.Graph {
	t.Helper()
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("C%d", i)
	}
	pairs := make([][2]string, n)
	for i := range ids {
		pairs[i] = [2]string{ids[i], ids[(i+1)%n]}
	}
	return buildTestGraph(t, ids, pairs...)
}
