package algorithms

import (
	"fmt"
	"sort"

	"github.com/dd0wney/cluso-resilience/pkg/graph"
)

// ReachLoss lists the destinations a surviving node can no longer reach.
type ReachLoss struct {
	NodeID string   `json:"nodeId"`
	Lost   []string `json:"lost"`
}

// ReachabilityDelta compares directed reachability before and after a disruption.
// Unlike DisruptionResult.AffectedNodes it also catches nodes that keep some
// routes but lose access to part of the network.
type ReachabilityDelta struct {
	Target                 DisruptionTarget `json:"target"`
	Applied                bool             `json:"applied"`
	ComponentsBefore       int              `json:"componentsBefore"`
	ComponentsAfter        int              `json:"componentsAfter"`
	StrongComponentsBefore int              `json:"strongComponentsBefore"`
	StrongComponentsAfter  int              `json:"strongComponentsAfter"`
	ReachablePairsBefore   int              `json:"reachablePairsBefore"`
	ReachablePairsAfter    int              `json:"reachablePairsAfter"`
	LostPairs              int              `json:"lostPairs"`
	NodesLosingReach       []ReachLoss      `json:"nodesLosingReach"`
}

// reachableFrom returns every node reachable from start, excluding start itself.
func reachableFrom(g *graph.Graph, start string) map[string]struct{} {
	seen := map[string]struct{}{start: {}}
	queue := []string{start}
	for head := 0; head < len(queue); head++ {
		for _, w := range g.OutNeighbors(queue[head]) {
			if _, ok := seen[w]; !ok {
				seen[w] = struct{}{}
				queue = append(queue, w)
			}
		}
	}
	delete(seen, start)
	return seen
}

// ComputeReachabilityDelta applies target to a copy of g and reports, for
// each node that survives, which previously reachable survivors it can no
// longer reach. The removed node itself is not counted as a lost destination.
func ComputeReachabilityDelta(g *graph.Graph, target DisruptionTarget, opts ...DisruptionOption) (*ReachabilityDelta, error) {
	if g == nil {
		return nil, ErrInvalidRequest
	}
	if err := target.validate(); err != nil {
		return nil, err
	}
	o := disruptionOptions{missing: MissingTargetNoop}
	for _, opt := range opts {
		opt(&o)
	}

	after, applied := applyDisruption(g, target)
	if !applied && o.missing == MissingTargetError {
		return nil, fmt.Errorf("%w: disruption target %s", ErrNotFound, target)
	}

	delta := &ReachabilityDelta{
		Target:                 target,
		Applied:                applied,
		ComponentsBefore:       len(WeaklyConnectedComponents(g)),
		ComponentsAfter:        len(WeaklyConnectedComponents(after)),
		StrongComponentsBefore: len(StronglyConnectedComponents(g)),
		StrongComponentsAfter:  len(StronglyConnectedComponents(after)),
		NodesLosingReach:       make([]ReachLoss, 0),
	}

	for _, id := range g.NodeIDs() {
		before := reachableFrom(g, id)
		delta.ReachablePairsBefore += len(before)
		if !after.HasNode(id) {
			continue
		}
		now := reachableFrom(after, id)
		delta.ReachablePairsAfter += len(now)

		var lost []string
		for dest := range before {
			if !after.HasNode(dest) {
				continue
			}
			if _, ok := now[dest]; !ok {
				lost = append(lost, dest)
			}
		}
		if len(lost) > 0 {
			sort.Strings(lost)
			delta.LostPairs += len(lost)
			delta.NodesLosingReach = append(delta.NodesLosingReach, ReachLoss{NodeID: id, Lost: lost})
		}
	}
	return delta, nil
}
