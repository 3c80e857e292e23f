package algorithms

import "github.com/dd0wney/cluso-resilience/pkg/graph"

// LocalClustering computes the clustering coefficient of every node on the
// undirected projection of g: linked neighbour pairs / (k(k-1)/2), or 0 when
// a node has fewer than two neighbours.
func LocalClustering(g *graph.Graph) (map[string]float64, error) {
	if g == nil {
		return nil, ErrInvalidRequest
	}
	ids := g.NodeIDs()

	neighborSets := make(map[string]map[string]struct{}, len(ids))
	neighborLists := make(map[string][]string, len(ids))
	for _, id := range ids {
		nbrs := g.Neighbors(id)
		set := make(map[string]struct{}, len(nbrs))
		for _, n := range nbrs {
			set[n] = struct{}{}
		}
		neighborSets[id] = set
		neighborLists[id] = nbrs
	}

	result := make(map[string]float64, len(ids))
	for _, id := range ids {
		nbrs := neighborLists[id]
		k := len(nbrs)
		if k < 2 {
			result[id] = 0
			continue
		}
		links := 0
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				if _, ok := neighborSets[nbrs[i]][nbrs[j]]; ok {
					links++
				}
			}
		}
		result[id] = float64(links) / (float64(k*(k-1)) / 2)
	}
	return result, nil
}

// GlobalClustering is the mean local clustering coefficient, summed in node
// insertion order. An empty graph scores 0.
func GlobalClustering(g *graph.Graph, local map[string]float64) float64 {
	ids := g.NodeIDs()
	if len(ids) == 0 {
		return 0
	}
	sum := 0.0
	for _, id := range ids {
		sum += local[id]
	}
	return sum / float64(len(ids))
}
