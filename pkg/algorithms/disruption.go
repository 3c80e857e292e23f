package algorithms

import (
	"fmt"

	"github.com/dd0wney/cluso-resilience/pkg/graph"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
)

// DisruptionKind says whether a node or a single route is removed.
type DisruptionKind string

const (
	DisruptNode DisruptionKind = "node"
	DisruptEdge DisruptionKind = "edge"
)

// DisruptionTarget names exactly one thing to remove. Build it with
// NodeRemoval or EdgeRemoval, or with NewDisruptionTarget from raw request fields.
type DisruptionTarget struct {
	Kind       DisruptionKind `json:"kind"`
	NodeID     string         `json:"nodeId,omitempty"`
	EdgeSource string         `json:"edgeSource,omitempty"`
	EdgeTarget string         `json:"edgeTarget,omitempty"`
}

func NodeRemoval(id string) DisruptionTarget {
	return DisruptionTarget{Kind: DisruptNode, NodeID: id}
}

func EdgeRemoval(source, target string) DisruptionTarget {
	return DisruptionTarget{Kind: DisruptEdge, EdgeSource: source, EdgeTarget: target}
}

// NewDisruptionTarget resolves request fields into a target. Exactly one of
// nodeID or the (source, target) pair must be set.
func NewDisruptionTarget(nodeID, edgeSource, edgeTarget string) (DisruptionTarget, error) {
	hasNode := nodeID != ""
	hasEdge := edgeSource != "" && edgeTarget != ""
	partialEdge := (edgeSource != "") != (edgeTarget != "")

	switch {
	case hasNode && (hasEdge || partialEdge):
		return DisruptionTarget{}, fmt.Errorf("%w: specify either nodeId or an edge, not both", ErrInvalidRequest)
	case hasNode:
		return NodeRemoval(nodeID), nil
	case hasEdge:
		return EdgeRemoval(edgeSource, edgeTarget), nil
	default:
		return DisruptionTarget{}, fmt.Errorf("%w: nodeId or edgeSource and edgeTarget required", ErrInvalidRequest)
	}
}

func (t DisruptionTarget) validate() error {
	switch t.Kind {
	case DisruptNode:
		if t.NodeID == "" {
			return fmt.Errorf("%w: node removal without node id", ErrInvalidRequest)
		}
	case DisruptEdge:
		if t.EdgeSource == "" || t.EdgeTarget == "" {
			return fmt.Errorf("%w: edge removal needs source and target", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unknown disruption kind %q", ErrInvalidRequest, t.Kind)
	}
	return nil
}

func (t DisruptionTarget) String() string {
	if t.Kind == DisruptEdge {
		return t.EdgeSource + "->" + t.EdgeTarget
	}
	return t.NodeID
}

// MissingTargetPolicy decides what happens when the target is not in the graph.
type MissingTargetPolicy int

const (
	// MissingTargetNoop reports an unmodified copy with Applied=false.
	MissingTargetNoop MissingTargetPolicy = iota
	// MissingTargetError fails with ErrNotFound.
	MissingTargetError
)

type disruptionOptions struct {
	missing MissingTargetPolicy
	logger  logging.Logger
}

type DisruptionOption func(*disruptionOptions)

func WithMissingTargetPolicy(p MissingTargetPolicy) DisruptionOption {
	return func(o *disruptionOptions) {
		o.missing = p
	}
}

func WithDisruptionLogger(l logging.Logger) DisruptionOption {
	return func(o *disruptionOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// DisruptionResult describes the network after a removal.
type DisruptionResult struct {
	Target          DisruptionTarget   `json:"target"`
	Applied         bool               `json:"applied"`
	AffectedNodes   []string           `json:"affectedNodes"`
	NodeCountBefore int                `json:"nodeCountBefore"`
	NodeCountAfter  int                `json:"nodeCountAfter"`
	EdgeCountBefore int                `json:"edgeCountBefore"`
	EdgeCountAfter  int                `json:"edgeCountAfter"`
	Degree          map[string]float64 `json:"degreeCentrality"`
	Betweenness     map[string]float64 `json:"betweennessCentrality"`

	// Graph is the disrupted copy, for follow-up analysis such as path search.
	Graph *graph.Graph `json:"-"`
}

func applyDisruption(g *graph.Graph, target DisruptionTarget) (*graph.Graph, bool) {
	if target.Kind == DisruptEdge {
		return g.WithoutEdge(target.EdgeSource, target.EdgeTarget)
	}
	return g.WithoutNode(target.NodeID)
}

// SimulateDisruption removes the target from a copy of g and recomputes
// degree and betweenness centrality. AffectedNodes lists, in graph order,
// the nodes left with no incident routes. g itself is never modified.
func SimulateDisruption(g *graph.Graph, target DisruptionTarget, opts ...DisruptionOption) (*DisruptionResult, error) {
	if g == nil {
		return nil, ErrInvalidRequest
	}
	if err := target.validate(); err != nil {
		return nil, err
	}
	o := disruptionOptions{missing: MissingTargetNoop, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	after, applied := applyDisruption(g, target)
	if !applied {
		if o.missing == MissingTargetError {
			return nil, fmt.Errorf("%w: disruption target %s", ErrNotFound, target)
		}
		o.logger.Warn("disruption target not in network, nothing removed",
			logging.String("target", target.String()),
			logging.String("kind", string(target.Kind)))
	}

	degree, err := DegreeCentrality(after)
	if err != nil {
		return nil, fmt.Errorf("degree centrality: %w", err)
	}
	betweenness, err := BetweennessCentrality(after)
	if err != nil {
		return nil, fmt.Errorf("betweenness centrality: %w", err)
	}

	affected := make([]string, 0)
	for _, id := range after.NodeIDs() {
		if after.Degree(id) == 0 {
			affected = append(affected, id)
		}
	}

	return &DisruptionResult{
		Target:          target,
		Applied:         applied,
		AffectedNodes:   affected,
		NodeCountBefore: g.Order(),
		NodeCountAfter:  after.Order(),
		EdgeCountBefore: g.Size(),
		EdgeCountAfter:  after.Size(),
		Degree:          degree,
		Betweenness:     betweenness,
		Graph:           after,
	}, nil
}
