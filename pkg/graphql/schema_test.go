package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/graph"
)

// memorySource is an in-memory network that counts how often it is read.
type memorySource struct {
	nodes  []graph.NodeRecord
	routes []graph.RouteRecord
	reads  atomic.Int32
	err    error
}

func (m *memorySource) ListNodes(ctx context.Context) ([]graph.NodeRecord, error) {
	m.reads.Add(1)
	return m.nodes, m.err
}

func (m *memorySource) ListRoutes(ctx context.Context) ([]graph.RouteRecord, error) {
	return m.routes, m.err
}

// diamond builds N1->N2, N1->N3, N2->N4, N3->N4 plus any extra routes.
func diamond(extra ...[2]string) *memorySource {
	src := &memorySource{}
	for _, id := range []string{"N1", "N2", "N3", "N4"} {
		rec := graph.NodeRecord{NodeID: id, Name: id, Type: graph.NodeTypeWarehouse}
		rec.ApplyDefaults()
		src.nodes = append(src.nodes, rec)
	}
	pairs := append([][2]string{{"N1", "N2"}, {"N1", "N3"}, {"N2", "N4"}, {"N3", "N4"}}, extra...)
	for i, p := range pairs {
		rec := graph.RouteRecord{Source: p[0], Target: p[1], Cost: float64(10 * (i + 1))}
		rec.ApplyDefaults()
		src.routes = append(src.routes, rec)
	}
	return src
}

func newTestSchema(t *testing.T, src *memorySource) graphql.Schema {
	t.Helper()
	schema, err := NewSchema(&Resolver{Source: src, Config: algorithms.DefaultMetricsConfig()})
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}
	return schema
}

// run executes query and decodes its data into out, failing on any error.
func run(t *testing.T, schema graphql.Schema, query string, out any) {
	t.Helper()
	result := ExecuteQuery(t.Context(), schema, query, nil, "")
	if result.HasErrors() {
		t.Fatalf("Query failed: %v", result.Errors)
	}
	data, err := json.Marshal(result.Data)
	if err != nil {
		t.Fatalf("Failed to marshal data: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("Failed to decode data %s: %v", data, err)
	}
}

func TestNewSchema_RequiresSource(t *testing.T) {
	if _, err := NewSchema(nil); err == nil {
		t.Error("Expected error for nil resolver")
	}
	if _, err := NewSchema(&Resolver{}); err == nil {
		t.Error("Expected error for resolver without source")
	}
}

func TestQueryNetworkStats(t *testing.T) {
	schema := newTestSchema(t, diamond())

	var out struct {
		NetworkStats algorithms.NetworkStats `json:"networkStats"`
	}
	run(t, schema, `{ networkStats { totalNodes totalEdges density } }`, &out)

	if out.NetworkStats.TotalNodes != 4 || out.NetworkStats.TotalEdges != 4 {
		t.Errorf("Unexpected stats: %+v", out.NetworkStats)
	}
	// 4 edges over 4*3 ordered pairs.
	if got := out.NetworkStats.Density; got < 0.333 || got > 0.334 {
		t.Errorf("Expected density 1/3, got %v", got)
	}
}

func TestQueryNodeMetrics(t *testing.T) {
	schema := newTestSchema(t, diamond())

	var out struct {
		NodeMetrics struct {
			NodeID      string  `json:"nodeId"`
			InDegree    int     `json:"inDegree"`
			OutDegree   int     `json:"outDegree"`
			Betweenness float64 `json:"betweennessCentrality"`
		} `json:"nodeMetrics"`
	}
	run(t, schema, `{ nodeMetrics(nodeId: "N2") { nodeId inDegree outDegree betweennessCentrality } }`, &out)

	if out.NodeMetrics.NodeID != "N2" || out.NodeMetrics.InDegree != 1 || out.NodeMetrics.OutDegree != 1 {
		t.Errorf("Unexpected metrics: %+v", out.NodeMetrics)
	}
	if out.NodeMetrics.Betweenness <= 0 {
		t.Errorf("Expected N2 to carry betweenness, got %v", out.NodeMetrics.Betweenness)
	}

	result := ExecuteQuery(t.Context(), schema, `{ nodeMetrics(nodeId: "GHOST") { nodeId } }`, nil, "")
	if !result.HasErrors() || !strings.Contains(result.Errors[0].Message, "not found") {
		t.Errorf("Expected not found error, got %v", result.Errors)
	}
}

func TestQueryAllNodeMetrics_Limit(t *testing.T) {
	schema := newTestSchema(t, diamond())

	var out struct {
		All []struct {
			NodeID string `json:"nodeId"`
		} `json:"allNodeMetrics"`
	}
	run(t, schema, `{ allNodeMetrics(limit: 2) { nodeId } }`, &out)

	if len(out.All) != 2 || out.All[0].NodeID != "N1" || out.All[1].NodeID != "N2" {
		t.Errorf("Expected first two nodes by id, got %+v", out.All)
	}
}

func TestQueryHealth(t *testing.T) {
	schema := newTestSchema(t, diamond())

	var out struct {
		Health struct {
			Score           int    `json:"healthScore"`
			Status          string `json:"healthStatus"`
			Recommendations []struct {
				Priority string `json:"priority"`
			} `json:"recommendations"`
		} `json:"health"`
	}
	run(t, schema, `{ health { healthScore healthStatus recommendations { priority } } }`, &out)

	if out.Health.Score < 0 || out.Health.Score > 100 || out.Health.Status == "" {
		t.Errorf("Unexpected health: %+v", out.Health)
	}
	if len(out.Health.Recommendations) == 0 {
		t.Error("Expected recommendations")
	}
}

func TestQueryAlternativePaths(t *testing.T) {
	schema := newTestSchema(t, diamond())

	var out struct {
		Paths []struct {
			Path      []string `json:"path"`
			TotalCost float64  `json:"totalCost"`
		} `json:"alternativePaths"`
	}
	run(t, schema, `{ alternativePaths(source: "N1", target: "N4") { path totalCost } }`, &out)

	if len(out.Paths) != 2 {
		t.Fatalf("Expected 2 paths, got %d", len(out.Paths))
	}
	if out.Paths[0].TotalCost != 40 || out.Paths[1].TotalCost != 60 {
		t.Errorf("Expected costs 40 then 60, got %v and %v", out.Paths[0].TotalCost, out.Paths[1].TotalCost)
	}

	result := ExecuteQuery(t.Context(), schema, `{ alternativePaths(source: "N1", target: "N4", maxPaths: 500) { hops } }`, nil, "")
	if !result.HasErrors() {
		t.Error("Expected maxPaths above the limit to be rejected")
	}
}

func TestQueryDisruption(t *testing.T) {
	schema := newTestSchema(t, diamond([2]string{"N2", "N3"}))

	var out struct {
		Disruption struct {
			Kind             string `json:"kind"`
			Applied          bool   `json:"applied"`
			EdgesAfter       int    `json:"edgesAfter"`
			AlternativePaths []struct {
				Path []string `json:"path"`
			} `json:"alternativePaths"`
			Recommendation string `json:"recommendation"`
		} `json:"disruption"`
	}
	run(t, schema, `{ disruption(edgeSource: "N2", edgeTarget: "N4") {
		kind applied edgesAfter alternativePaths { path } recommendation
	} }`, &out)

	d := out.Disruption
	if d.Kind != "edge" || !d.Applied || d.EdgesAfter != 4 {
		t.Errorf("Unexpected disruption: %+v", d)
	}
	if len(d.AlternativePaths) != 1 || strings.Join(d.AlternativePaths[0].Path, ",") != "N2,N3,N4" {
		t.Errorf("Expected bypass through N3, got %+v", d.AlternativePaths)
	}
	if d.Recommendation == "" {
		t.Error("Expected a recommendation")
	}

	result := ExecuteQuery(t.Context(), schema, `{ disruption { kind } }`, nil, "")
	if !result.HasErrors() {
		t.Error("Expected error when no target is named")
	}
}

func TestQuerySharesOneLoad(t *testing.T) {
	src := diamond()
	schema := newTestSchema(t, src)

	var out map[string]any
	run(t, schema, `{
		networkStats { totalNodes }
		bottlenecks { nodeId }
		criticalNodes { nodeId }
		criticalRoutes { source target score }
		health { healthScore }
	}`, &out)

	if n := src.reads.Load(); n != 1 {
		t.Errorf("Expected one store read per query, got %d", n)
	}
}

func TestQueryEmptyNetwork(t *testing.T) {
	schema := newTestSchema(t, &memorySource{})

	result := ExecuteQuery(t.Context(), schema, `{ networkStats { totalNodes } }`, nil, "")
	if !result.HasErrors() {
		t.Fatal("Expected error for empty network")
	}
	if !strings.Contains(result.Errors[0].Message, algorithms.ErrEmptyGraph.Error()) {
		t.Errorf("Expected empty graph error, got %q", result.Errors[0].Message)
	}
}

func TestQuerySourceError(t *testing.T) {
	schema := newTestSchema(t, &memorySource{err: errors.New("connection refused")})

	result := ExecuteQuery(t.Context(), schema, `{ health { healthScore } }`, nil, "")
	if !result.HasErrors() || !strings.Contains(result.Errors[0].Message, "connection refused") {
		t.Errorf("Expected source error to surface, got %v", result.Errors)
	}
}
