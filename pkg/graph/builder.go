package graph

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-resilience/pkg/logging"
)

var (
	// ErrDanglingEdge is returned under DanglingError when a route names a node
	// that is not part of the network.
	ErrDanglingEdge = errors.New("route references unknown node")
	// ErrSelfLoop is returned under DanglingError for a route whose source equals its target.
	ErrSelfLoop = errors.New("route is a self-loop")
	// ErrDuplicateNode is returned under DanglingError when two records share an id.
	ErrDuplicateNode = errors.New("duplicate node id")
)

// DanglingPolicy decides what Build does with structurally invalid input.
type DanglingPolicy int

const (
	// DanglingSkip drops the offending record and logs it.
	DanglingSkip DanglingPolicy = iota
	// DanglingError aborts the build.
	DanglingError
)

func (p DanglingPolicy) String() string {
	if p == DanglingError {
		return "error"
	}
	return "skip"
}

// BuildOptions configures Build.
type BuildOptions struct {
	Dangling DanglingPolicy
	Logger   logging.Logger
}

type BuildOption func(*BuildOptions)

func WithDanglingPolicy(p DanglingPolicy) BuildOption {
	return func(o *BuildOptions) {
		o.Dangling = p
	}
}

func WithLogger(l logging.Logger) BuildOption {
	return func(o *BuildOptions) {
		if l != nil {
			o.Logger = l
		}
	}
}

// Build turns node and route records into a Graph.
//
// Each node record becomes one node. A route becomes an edge only when both
// endpoints exist and differ; otherwise it is skipped (and logged) or, with
// DanglingError, rejected. A route repeating an existing ordered pair is
// always skipped.
func Build(nodes []NodeRecord, routes []RouteRecord, opts ...BuildOption) (*Graph, error) {
	o := BuildOptions{Dangling: DanglingSkip, Logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.Logger.With(logging.Component("graph_builder"))

	g := newGraph(len(nodes), len(routes))
	for _, rec := range nodes {
		if g.HasNode(rec.NodeID) {
			if o.Dangling == DanglingError {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, rec.NodeID)
			}
			log.Warn("skipping duplicate node", logging.NodeID(rec.NodeID))
			continue
		}
		g.addNode(nodeFromRecord(rec))
	}

	skipped := 0
	for _, rec := range routes {
		switch {
		case rec.Source == rec.Target:
			if o.Dangling == DanglingError {
				return nil, fmt.Errorf("%w: %s", ErrSelfLoop, rec.Source)
			}
			log.Warn("skipping self-loop route", logging.Route(rec.Source, rec.Target))
			skipped++
		case !g.HasNode(rec.Source) || !g.HasNode(rec.Target):
			if o.Dangling == DanglingError {
				return nil, fmt.Errorf("%w: %s->%s", ErrDanglingEdge, rec.Source, rec.Target)
			}
			log.Warn("skipping route with unknown endpoint", logging.Route(rec.Source, rec.Target))
			skipped++
		case g.HasEdge(rec.Source, rec.Target):
			log.Debug("skipping duplicate route", logging.Route(rec.Source, rec.Target))
			skipped++
		default:
			g.addEdge(edgeFromRecord(rec))
		}
	}

	log.Debug("graph built",
		logging.Int("nodes", g.Order()),
		logging.Int("edges", g.Size()),
		logging.Int("skipped_routes", skipped))
	return g, nil
}
