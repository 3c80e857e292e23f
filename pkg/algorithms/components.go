package algorithms

import "github.com/dd0wney/cluso-resilience/pkg/graph"

// Component is a set of node ids, listed in discovery order.
type Component struct {
	ID    int      `json:"id"`
	Nodes []string `json:"nodes"`
}

func (c Component) Size() int {
	return len(c.Nodes)
}

// WeaklyConnectedComponents groups nodes that are connected when route
// direction is ignored. Components are numbered in order of their first node.
func WeaklyConnectedComponents(g *graph.Graph) []Component {
	visited := make(map[string]bool, g.Order())
	components := make([]Component, 0)

	for _, start := range g.NodeIDs() {
		if visited[start] {
			continue
		}
		comp := Component{ID: len(components)}
		queue := []string{start}
		visited[start] = true
		for head := 0; head < len(queue); head++ {
			id := queue[head]
			comp.Nodes = append(comp.Nodes, id)
			for _, n := range g.Neighbors(id) {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		components = append(components, comp)
	}
	return components
}

type tarjanState struct {
	index   int
	lowlink int
	onStack bool
}

// StronglyConnectedComponents finds the SCCs of g with Tarjan's algorithm,
// following only outgoing routes. A node on no cycle is a singleton.
func StronglyConnectedComponents(g *graph.Graph) []Component {
	ids := g.NodeIDs()
	state := make(map[string]*tarjanState, len(ids))
	stack := make([]string, 0, len(ids))
	counter := 0
	components := make([]Component, 0)

	var strongconnect func(u string)
	strongconnect = func(u string) {
		state[u] = &tarjanState{index: counter, lowlink: counter, onStack: true}
		counter++
		stack = append(stack, u)

		for _, v := range g.OutNeighbors(u) {
			if _, seen := state[v]; !seen {
				strongconnect(v)
				if state[v].lowlink < state[u].lowlink {
					state[u].lowlink = state[v].lowlink
				}
			} else if state[v].onStack && state[v].index < state[u].lowlink {
				state[u].lowlink = state[v].index
			}
		}

		if state[u].lowlink == state[u].index {
			comp := Component{ID: len(components)}
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				state[w].onStack = false
				comp.Nodes = append(comp.Nodes, w)
				if w == u {
					break
				}
			}
			components = append(components, comp)
		}
	}

	for _, id := range ids {
		if _, seen := state[id]; !seen {
			strongconnect(id)
		}
	}
	return components
}
