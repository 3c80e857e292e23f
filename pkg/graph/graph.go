package graph

import "slices"

// Graph is a directed supply-chain network. Node iteration follows insertion
// order and adjacency lists follow edge insertion order, so every algorithm
// that walks a Graph produces the same result for the same input.
//
// A Graph is read-only once built. Modified copies come from Clone,
// WithoutNode and WithoutEdge.
type Graph struct {
	order []string
	nodes map[string]Node
	out   map[string][]string
	in    map[string][]string
	edges map[EdgeKey]Edge
	// edgeOrder keeps edges in insertion order for deterministic listing
	edgeOrder []EdgeKey
}

func newGraph(nodeHint, edgeHint int) *Graph {
	return &Graph{
		order:     make([]string, 0, nodeHint),
		nodes:     make(map[string]Node, nodeHint),
		out:       make(map[string][]string, nodeHint),
		in:        make(map[string][]string, nodeHint),
		edges:     make(map[EdgeKey]Edge, edgeHint),
		edgeOrder: make([]EdgeKey, 0, edgeHint),
	}
}

func (g *Graph) addNode(n Node) {
	g.order = append(g.order, n.ID)
	g.nodes[n.ID] = n
}

func (g *Graph) addEdge(e Edge) {
	key := e.Key()
	g.edges[key] = e
	g.edgeOrder = append(g.edgeOrder, key)
	g.out[e.Source] = append(g.out[e.Source], e.Target)
	g.in[e.Target] = append(g.in[e.Target], e.Source)
}

// Order is the number of nodes.
func (g *Graph) Order() int {
	return len(g.order)
}

// Size is the number of directed edges.
func (g *Graph) Size() int {
	return len(g.edgeOrder)
}

// NodeIDs returns node ids in insertion order. The slice is a copy.
func (g *Graph) NodeIDs() []string {
	return slices.Clone(g.order)
}

func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) HasEdge(source, target string) bool {
	_, ok := g.edges[EdgeKey{Source: source, Target: target}]
	return ok
}

func (g *Graph) Edge(source, target string) (Edge, bool) {
	e, ok := g.edges[EdgeKey{Source: source, Target: target}]
	return e, ok
}

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edgeOrder))
	for _, k := range g.edgeOrder {
		out = append(out, g.edges[k])
	}
	return out
}

// OutNeighbors returns the targets of id's outgoing edges in insertion order.
// The returned slice must not be modified.
func (g *Graph) OutNeighbors(id string) []string {
	return g.out[id]
}

// InNeighbors returns the sources of id's incoming edges in insertion order.
// The returned slice must not be modified.
func (g *Graph) InNeighbors(id string) []string {
	return g.in[id]
}

// Neighbors returns the distinct neighbours of id in the undirected
// projection: out-neighbours first, then in-neighbours not already seen.
func (g *Graph) Neighbors(id string) []string {
	out := g.out[id]
	in := g.in[id]
	result := make([]string, 0, len(out)+len(in))
	seen := make(map[string]struct{}, len(out)+len(in))
	for _, n := range out {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			result = append(result, n)
		}
	}
	for _, n := range in {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			result = append(result, n)
		}
	}
	return result
}

func (g *Graph) InDegree(id string) int {
	return len(g.in[id])
}

func (g *Graph) OutDegree(id string) int {
	return len(g.out[id])
}

// Degree is in-degree plus out-degree.
func (g *Graph) Degree(id string) int {
	return len(g.in[id]) + len(g.out[id])
}

// Clone returns an independent copy. Node and edge values are copied;
// metadata maps are shared because nothing inside a Graph writes to them.
func (g *Graph) Clone() *Graph {
	c := newGraph(len(g.order), len(g.edgeOrder))
	for _, id := range g.order {
		c.addNode(g.nodes[id])
	}
	for _, k := range g.edgeOrder {
		c.addEdge(g.edges[k])
	}
	return c
}

// WithoutNode returns a copy with id and all incident edges removed. The
// boolean is false, and the copy unchanged, when id is not in the graph.
func (g *Graph) WithoutNode(id string) (*Graph, bool) {
	if !g.HasNode(id) {
		return g.Clone(), false
	}
	c := newGraph(len(g.order)-1, len(g.edgeOrder))
	for _, nid := range g.order {
		if nid != id {
			c.addNode(g.nodes[nid])
		}
	}
	for _, k := range g.edgeOrder {
		if k.Source != id && k.Target != id {
			c.addEdge(g.edges[k])
		}
	}
	return c, true
}

// WithoutEdge returns a copy with the source->target edge removed. Both
// endpoints are kept. The boolean is false when the edge does not exist.
func (g *Graph) WithoutEdge(source, target string) (*Graph, bool) {
	removed := EdgeKey{Source: source, Target: target}
	if _, ok := g.edges[removed]; !ok {
		return g.Clone(), false
	}
	c := newGraph(len(g.order), len(g.edgeOrder)-1)
	for _, nid := range g.order {
		c.addNode(g.nodes[nid])
	}
	for _, k := range g.edgeOrder {
		if k != removed {
			c.addEdge(g.edges[k])
		}
	}
	return c, true
}
