package graphql

import (
	"context"
	"sync"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/graph"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
)

// networkLoader memoizes the stored network, its graph and its analysis for
// the lifetime of one request, so a query selecting several root fields
// reads the store and runs the metric suite at most once.
type networkLoader struct {
	r *Resolver

	loadOnce sync.Once
	nodes    []graph.NodeRecord
	routes   []graph.RouteRecord
	loadErr  error

	graphOnce sync.Once
	g         *graph.Graph
	graphErr  error

	analyzeOnce sync.Once
	snap        *resilience.Snapshot
	analyzeErr  error
}

type loaderSlot struct {
	once   sync.Once
	loader *networkLoader
}

type loaderKey struct{}

// withRequestCache attaches an empty loader slot to ctx.
func withRequestCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, loaderKey{}, &loaderSlot{})
}

// loader returns the request's loader, or a fresh one when ctx carries none.
func (r *Resolver) loader(ctx context.Context) *networkLoader {
	slot, ok := ctx.Value(loaderKey{}).(*loaderSlot)
	if !ok {
		return &networkLoader{r: r}
	}
	slot.once.Do(func() { slot.loader = &networkLoader{r: r} })
	return slot.loader
}

func (l *networkLoader) load(ctx context.Context) ([]graph.NodeRecord, []graph.RouteRecord, error) {
	l.loadOnce.Do(func() {
		l.nodes, l.routes, l.loadErr = resilience.Load(ctx, l.r.Source)
		if l.loadErr == nil && len(l.nodes) == 0 {
			l.loadErr = algorithms.ErrEmptyGraph
		}
	})
	return l.nodes, l.routes, l.loadErr
}

func (l *networkLoader) graph(ctx context.Context) (*graph.Graph, error) {
	l.graphOnce.Do(func() {
		nodes, routes, err := l.load(ctx)
		if err != nil {
			l.graphErr = err
			return
		}
		l.g, l.graphErr = graph.Build(nodes, routes,
			graph.WithDanglingPolicy(l.r.Config.Dangling),
			graph.WithLogger(l.r.Logger))
	})
	return l.g, l.graphErr
}

func (l *networkLoader) analyze(ctx context.Context) (*resilience.Snapshot, error) {
	l.analyzeOnce.Do(func() {
		nodes, routes, err := l.load(ctx)
		if err != nil {
			l.analyzeErr = err
			return
		}
		l.snap, l.analyzeErr = resilience.Analyze(ctx, nodes, routes, l.r.Config)
	})
	return l.snap, l.analyzeErr
}
