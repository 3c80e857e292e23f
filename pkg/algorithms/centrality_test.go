package algorithms

import (
	"testing"

	"github.com/dd0wney/cluso-resilience/pkg/graph"
)

func TestDegreeCentralityChain(t *testing.T) {
	g := setupChainTestGraph(t)

	degree, err := DegreeCentrality(g)
	if err != nil {
		t.Fatalf("DegreeCentrality failed: %v", err)
	}

	expected := map[string]float64{"N1": 0.5, "N2": 1.0, "N3": 0.5}
	for id, want := range expected {
		if !approxEqual(degree[id], want) {
			t.Errorf("Expected degree centrality %v for %s, got %v", want, id, degree[id])
		}
	}
}

func TestBetweennessCentralityChain(t *testing.T) {
	g := setupChainTestGraph(t)

	bc, err := BetweennessCentrality(g)
	if err != nil {
		t.Fatalf("BetweennessCentrality failed: %v", err)
	}

	if bc["N1"] != 0 || bc["N3"] != 0 {
		t.Errorf("Expected endpoints to have 0 betweenness, got N1=%v N3=%v", bc["N1"], bc["N3"])
	}
	// One pair (N1,N3) routed through N2, normalised by (3-1)(3-2)
	if !approxEqual(bc["N2"], 0.5) {
		t.Errorf("Expected N2 betweenness 0.5, got %v", bc["N2"])
	}
}

func TestBetweennessSplitsAcrossShortestPaths(t *testing.T) {
	g := setupDiamondTestGraph(t)

	bc, err := BetweennessCentrality(g)
	if err != nil {
		t.Fatalf("BetweennessCentrality failed: %v", err)
	}

	// N1 -> N4 has two shortest paths, so N2 and N3 each get half of one pair.
	want := 0.5 / float64(3*2)
	if !approxEqual(bc["N2"], want) || !approxEqual(bc["N3"], want) {
		t.Errorf("Expected N2 and N3 betweenness %v, got %v and %v", want, bc["N2"], bc["N3"])
	}
	if bc["N1"] != 0 || bc["N4"] != 0 {
		t.Errorf("Expected source and sink to have 0 betweenness")
	}
}

func TestEdgeBetweennessCentrality(t *testing.T) {
	g := setupChainTestGraph(t)

	eb, err := EdgeBetweennessCentrality(g)
	if err != nil {
		t.Fatalf("EdgeBetweennessCentrality failed: %v", err)
	}

	// Each arc carries two of the six ordered pairs.
	for _, k := range []graph.EdgeKey{{Source: "N1", Target: "N2"}, {Source: "N2", Target: "N3"}} {
		if !approxEqual(eb[k], 2.0/6.0) {
			t.Errorf("Expected edge betweenness 1/3 for %v, got %v", k, eb[k])
		}
	}

	ranked := RankCriticalRoutes(eb, 10)
	if len(ranked) != 2 {
		t.Fatalf("Expected 2 critical routes, got %d", len(ranked))
	}
	if ranked[0].Source != "N1" || ranked[1].Source != "N2" {
		t.Errorf("Expected ties broken by source id, got %+v", ranked)
	}
}

func TestRankCriticalRoutesLimit(t *testing.T) {
	scores := map[graph.EdgeKey]float64{
		{Source: "A", Target: "B"}: 0.1,
		{Source: "B", Target: "C"}: 0.4,
		{Source: "C", Target: "D"}: 0.4,
		{Source: "D", Target: "E"}: 0.2,
		{Source: "E", Target: "F"}: 0,
	}

	top := RankCriticalRoutes(scores, 3)
	if len(top) != 3 {
		t.Fatalf("Expected 3 routes, got %d", len(top))
	}
	want := []string{"B", "C", "D"}
	for i, r := range top {
		if r.Source != want[i] {
			t.Errorf("Position %d: expected source %s, got %s", i, want[i], r.Source)
		}
	}

	if got := RankCriticalRoutes(scores, 0); got != nil {
		t.Errorf("Expected nil for n=0, got %v", got)
	}
	if got := RankCriticalRoutes(scores, 10); len(got) != 4 {
		t.Errorf("Zero-score routes should be excluded, got %d routes", len(got))
	}
}

func TestClosenessCentralityChain(t *testing.T) {
	g := setupChainTestGraph(t)

	cc, err := ClosenessCentrality(g, ClosenessOptions{})
	if err != nil {
		t.Fatalf("ClosenessCentrality failed: %v", err)
	}

	if !approxEqual(cc["N1"], 2.0/3.0) {
		t.Errorf("Expected N1 closeness 2/3, got %v", cc["N1"])
	}
	if !approxEqual(cc["N2"], 1.0) {
		t.Errorf("Expected N2 closeness 1, got %v", cc["N2"])
	}
	if cc["N3"] != 0 {
		t.Errorf("Expected sink closeness 0, got %v", cc["N3"])
	}
}

func TestClosenessWassermanFaust(t *testing.T) {
	g := setupChainTestGraph(t)

	cc, err := ClosenessCentrality(g, ClosenessOptions{WassermanFaust: true})
	if err != nil {
		t.Fatalf("ClosenessCentrality failed: %v", err)
	}

	// N2 reaches only half the network, so it no longer outranks N1.
	if !approxEqual(cc["N2"], 0.5) {
		t.Errorf("Expected N2 closeness 0.5, got %v", cc["N2"])
	}
	if !approxEqual(cc["N1"], 2.0/3.0) {
		t.Errorf("Expected N1 closeness 2/3, got %v", cc["N1"])
	}
	if cc["N2"] > cc["N1"] {
		t.Error("Partially connected node should not outrank a fully connected one")
	}
}

func TestCentralityOnIsolatedNodes(t *testing.T) {
	g := buildTestGraph(t, []string{"A", "B", "C", "D"})

	degree, _ := DegreeCentrality(g)
	bc, _ := BetweennessCentrality(g)
	cc, _ := ClosenessCentrality(g, ClosenessOptions{WassermanFaust: true})
	lc, _ := LocalClustering(g)

	for _, id := range g.NodeIDs() {
		if degree[id] != 0 || bc[id] != 0 || cc[id] != 0 || lc[id] != 0 {
			t.Errorf("Expected all-zero metrics for isolated node %s: deg=%v bc=%v cc=%v lc=%v",
				id, degree[id], bc[id], cc[id], lc[id])
		}
	}
}

func TestCycleSymmetry(t *testing.T) {
	for _, n := range []int{3, 5, 8} {
		g := setupCycleTestGraph(t, n)

		degree, _ := DegreeCentrality(g)
		bc, _ := BetweennessCentrality(g)
		cc, _ := ClosenessCentrality(g, ClosenessOptions{})

		first := g.NodeIDs()[0]
		for _, id := range g.NodeIDs() {
			if degree[id] != degree[first] || bc[id] != bc[first] || cc[id] != cc[first] {
				t.Errorf("n=%d: node %s differs from %s: deg %v/%v bc %v/%v cc %v/%v",
					n, id, first, degree[id], degree[first], bc[id], bc[first], cc[id], cc[first])
			}
		}
		if bc[first] <= 0 {
			t.Errorf("n=%d: expected positive betweenness on a cycle, got %v", n, bc[first])
		}
	}
}

func TestCentralityTrivialGraphs(t *testing.T) {
	empty := buildTestGraph(t, nil)
	single := buildTestGraph(t, []string{"ONLY"})

	for name, g := range map[string]*graph.Graph{"empty": empty, "single": single} {
		t.Run(name, func(t *testing.T) {
			degree, err := DegreeCentrality(g)
			if err != nil {
				t.Fatalf("DegreeCentrality failed: %v", err)
			}
			bc, err := BetweennessCentrality(g)
			if err != nil {
				t.Fatalf("BetweennessCentrality failed: %v", err)
			}
			cc, err := ClosenessCentrality(g, ClosenessOptions{})
			if err != nil {
				t.Fatalf("ClosenessCentrality failed: %v", err)
			}
			if len(degree) != g.Order() || len(bc) != g.Order() || len(cc) != g.Order() {
				t.Errorf("Expected one entry per node")
			}
			for _, id := range g.NodeIDs() {
				if degree[id] != 0 || bc[id] != 0 || cc[id] != 0 {
					t.Errorf("Expected zero scores for %s", id)
				}
			}
		})
	}
}

func TestCentralityNilGraph(t *testing.T) {
	if _, err := DegreeCentrality(nil); err != ErrInvalidRequest {
		t.Errorf("Expected ErrInvalidRequest, got %v", err)
	}
	if _, err := BetweennessCentrality(nil); err != ErrInvalidRequest {
		t.Errorf("Expected ErrInvalidRequest, got %v", err)
	}
	if _, err := ClosenessCentrality(nil, ClosenessOptions{}); err != ErrInvalidRequest {
		t.Errorf("Expected ErrInvalidRequest, got %v", err)
	}
	if _, err := LocalClustering(nil); err != ErrInvalidRequest {
		t.Errorf("Expected ErrInvalidRequest, got %v", err)
	}
}
