package algorithms

import (
	"container/heap"
	"sort"

	"github.com/dd0wney/cluso-resilience/pkg/graph"
)

// index maps a graph's node ids to dense positions in insertion order.
type index struct {
	ids []string
	pos map[string]int
	out [][]int
}

func newIndex(g *graph.Graph) *index {
	ids := g.NodeIDs()
	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	out := make([][]int, len(ids))
	for i, id := range ids {
		nbrs := g.OutNeighbors(id)
		out[i] = make([]int, len(nbrs))
		for j, w := range nbrs {
			out[i][j] = pos[w]
		}
	}
	return &index{ids: ids, pos: pos, out: out}
}

// predEdge records the predecessor on a shortest path and the arc used to reach w.
type predEdge struct {
	node int
	edge graph.EdgeKey
}

// brandes runs one Brandes pass and returns raw (unnormalised) node and edge
// betweenness. Sources, queue order and predecessor lists all follow
// insertion order, so the floating point accumulation order is fixed.
func brandes(g *graph.Graph) (nodeScores []float64, edgeScores map[graph.EdgeKey]float64, idx *index) {
	idx = newIndex(g)
	n := len(idx.ids)
	nodeScores = make([]float64, n)
	edgeScores = make(map[graph.EdgeKey]float64, g.Size())
	for _, e := range g.Edges() {
		edgeScores[e.Key()] = 0
	}

	sigma := make([]float64, n)
	dist := make([]int, n)
	delta := make([]float64, n)
	preds := make([][]predEdge, n)
	stack := make([]int, 0, n)
	queue := make([]int, 0, n)

	for s := 0; s < n; s++ {
		for i := 0; i < n; i++ {
			sigma[i] = 0
			dist[i] = -1
			delta[i] = 0
			preds[i] = preds[i][:0]
		}
		stack = stack[:0]
		queue = append(queue[:0], s)
		sigma[s] = 1
		dist[s] = 0

		for head := 0; head < len(queue); head++ {
			v := queue[head]
			stack = append(stack, v)
			for _, w := range idx.out[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], predEdge{
						node: v,
						edge: graph.EdgeKey{Source: idx.ids[v], Target: idx.ids[w]},
					})
				}
			}
		}

		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, p := range preds[w] {
				c := (sigma[p.node] / sigma[w]) * (1 + delta[w])
				delta[p.node] += c
				edgeScores[p.edge] += c
			}
			if w != s {
				nodeScores[w] += delta[w]
			}
		}
	}
	return nodeScores, edgeScores, idx
}

// normalizedBrandes returns node betweenness normalised by (n-1)(n-2) and
// edge betweenness normalised by n(n-1), both from a single pass.
func normalizedBrandes(g *graph.Graph) (map[string]float64, map[graph.EdgeKey]float64) {
	raw, edges, idx := brandes(g)
	n := len(idx.ids)

	norm := 1.0
	if n > 2 {
		norm = 1.0 / float64((n-1)*(n-2))
	}
	nodes := make(map[string]float64, n)
	for i, id := range idx.ids {
		nodes[id] = raw[i] * norm
	}

	if n > 1 {
		edgeNorm := 1.0 / float64(n*(n-1))
		for k := range edges {
			edges[k] *= edgeNorm
		}
	}
	return nodes, edges
}

// BetweennessCentrality computes directed betweenness for every node,
// normalised by (n-1)(n-2). Pairs with no path contribute nothing.
func BetweennessCentrality(g *graph.Graph) (map[string]float64, error) {
	if g == nil {
		return nil, ErrInvalidRequest
	}
	nodes, _ := normalizedBrandes(g)
	return nodes, nil
}

// EdgeBetweennessCentrality computes directed edge betweenness, normalised by n(n-1).
func EdgeBetweennessCentrality(g *graph.Graph) (map[graph.EdgeKey]float64, error) {
	if g == nil {
		return nil, ErrInvalidRequest
	}
	_, edges := normalizedBrandes(g)
	return edges, nil
}

// DegreeCentrality is (in-degree + out-degree) / (n-1), or 0 when n <= 1.
func DegreeCentrality(g *graph.Graph) (map[string]float64, error) {
	if g == nil {
		return nil, ErrInvalidRequest
	}
	n := g.Order()
	result := make(map[string]float64, n)
	for _, id := range g.NodeIDs() {
		if n > 1 {
			result[id] = float64(g.Degree(id)) / float64(n-1)
		} else {
			result[id] = 0
		}
	}
	return result, nil
}

// ClosenessOptions configures ClosenessCentrality.
type ClosenessOptions struct {
	// WassermanFaust scales each score by the fraction of the network the
	// node reaches, so partially connected nodes do not outrank fully
	// connected ones.
	WassermanFaust bool
}

// ClosenessCentrality computes (reachable-1)/sum(dist) over directed BFS hop
// distances. A node that reaches nothing scores 0.
func ClosenessCentrality(g *graph.Graph, opts ClosenessOptions) (map[string]float64, error) {
	if g == nil {
		return nil, ErrInvalidRequest
	}
	idx := newIndex(g)
	n := len(idx.ids)
	result := make(map[string]float64, n)

	dist := make([]int, n)
	queue := make([]int, 0, n)
	for s := 0; s < n; s++ {
		for i := range dist {
			dist[i] = -1
		}
		dist[s] = 0
		queue = append(queue[:0], s)

		total, reached := 0, 0
		for head := 0; head < len(queue); head++ {
			v := queue[head]
			for _, w := range idx.out[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					total += dist[w]
					reached++
					queue = append(queue, w)
				}
			}
		}

		score := 0.0
		if total > 0 {
			score = float64(reached) / float64(total)
			if opts.WassermanFaust && n > 1 {
				score *= float64(reached) / float64(n-1)
			}
		}
		result[idx.ids[s]] = score
	}
	return result, nil
}

// CriticalRoute is a route ranked by edge betweenness.
type CriticalRoute struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Score  float64 `json:"score"`
}

// routeHeap is a min-heap on score; ties put the larger key on top so it is evicted first.
type routeHeap []CriticalRoute

func (h routeHeap) Len() int { return len(h) }
func (h routeHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return routeLess(h[j], h[i])
}
func (h routeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *routeHeap) Push(x any) {
	*h = append(*h, x.(CriticalRoute))
}

func (h *routeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func routeLess(a, b CriticalRoute) bool {
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return a.Target < b.Target
}

// RankCriticalRoutes returns the top n routes by score, descending, with
// ties broken by (source, target). Routes scoring 0 are never reported.
func RankCriticalRoutes(scores map[graph.EdgeKey]float64, n int) []CriticalRoute {
	if n <= 0 {
		return nil
	}
	h := make(routeHeap, 0, n)
	heap.Init(&h)
	for k, score := range scores {
		if score <= 0 {
			continue
		}
		r := CriticalRoute{Source: k.Source, Target: k.Target, Score: score}
		if h.Len() < n {
			heap.Push(&h, r)
		} else if score > h[0].Score || (score == h[0].Score && routeLess(r, h[0])) {
			heap.Pop(&h)
			heap.Push(&h, r)
		}
	}

	result := make([]CriticalRoute, h.Len())
	for i := range result {
		result[i] = heap.Pop(&h).(CriticalRoute)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return routeLess(result[i], result[j])
	})
	return result
}
