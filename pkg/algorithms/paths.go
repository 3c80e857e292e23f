package algorithms

import (
	"context"
	"fmt"
	"sort"

	"github.com/dd0wney/cluso-resilience/pkg/graph"
)

const (
	// DefaultMaxPaths is used when a caller asks for zero or fewer paths.
	DefaultMaxPaths = 5
	// MaxPathDepth bounds the node count of a partial path that may still be
	// extended, which guarantees termination on cyclic networks.
	MaxPathDepth = 10

	// pathCtxInterval is how many frontier entries are expanded between
	// context checks.
	pathCtxInterval = 1024
)

// Path is an ordered list of node ids from source to target.
type Path []string

// Hops is the number of routes traversed.
func (p Path) Hops() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// FindAlternativePaths enumerates simple paths from source to target with a
// FIFO frontier, so shorter paths tend to come first. Paths are not ranked by
// cost; see SummarizePaths. An absent or unreachable endpoint yields an empty
// result rather than an error.
func FindAlternativePaths(g *graph.Graph, source, target string, maxPaths int) ([]Path, error) {
	return FindAlternativePathsContext(context.Background(), g, source, target, maxPaths)
}

// FindAlternativePathsContext is FindAlternativePaths with cancellation. The
// frontier can grow exponentially on dense networks, so ctx is polled while
// it is drained.
func FindAlternativePathsContext(ctx context.Context, g *graph.Graph, source, target string, maxPaths int) ([]Path, error) {
	if g == nil {
		return nil, ErrInvalidRequest
	}
	if source == "" || target == "" {
		return nil, fmt.Errorf("%w: source and target are required", ErrInvalidRequest)
	}
	if maxPaths <= 0 {
		maxPaths = DefaultMaxPaths
	}
	paths := make([]Path, 0, min(maxPaths, DefaultMaxPaths))
	if !g.HasNode(source) || !g.HasNode(target) {
		return paths, nil
	}

	queue := []Path{{source}}
	for head := 0; head < len(queue) && len(paths) < maxPaths; head++ {
		if head%pathCtxInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		path := queue[head]
		queue[head] = nil
		current := path[len(path)-1]

		if current == target {
			paths = append(paths, path)
			continue
		}
		if len(path) > MaxPathDepth {
			continue
		}
		for _, next := range g.OutNeighbors(current) {
			if path.contains(next) {
				continue
			}
			extended := make(Path, len(path)+1)
			copy(extended, path)
			extended[len(path)] = next
			queue = append(queue, extended)
		}
	}
	return paths, nil
}

func (p Path) contains(id string) bool {
	for _, n := range p {
		if n == id {
			return true
		}
	}
	return false
}

// PathSummary aggregates route attributes along a path.
type PathSummary struct {
	Path          Path            `json:"path"`
	Hops          int             `json:"hops"`
	TotalDistance float64         `json:"totalDistance"`
	TotalCost     float64         `json:"totalCost"`
	TotalTime     float64         `json:"totalTime"`
	MaxRisk       graph.RiskLevel `json:"maxRisk"`
}

// SummarizePaths totals distance, cost and time along each path and records
// its worst risk level. The result is sorted by total cost; equal costs keep
// discovery order.
func SummarizePaths(g *graph.Graph, paths []Path) []PathSummary {
	out := make([]PathSummary, 0, len(paths))
	for _, p := range paths {
		s := PathSummary{Path: p, Hops: p.Hops(), MaxRisk: graph.RiskLow}
		for i := 0; i+1 < len(p); i++ {
			e, ok := g.Edge(p[i], p[i+1])
			if !ok {
				continue
			}
			s.TotalDistance += e.Distance
			s.TotalCost += e.Cost
			s.TotalTime += e.Time
			if e.RiskLevel.Severity() > s.MaxRisk.Severity() {
				s.MaxRisk = e.RiskLevel
			}
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalCost < out[j].TotalCost
	})
	return out
}
