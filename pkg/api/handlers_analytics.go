package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/graph"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
	"github.com/dd0wney/cluso-resilience/pkg/validation"
)

// computeMetrics analyses the network and writes the per-node metrics back
// to the store.
func (s *Server) computeMetrics(w http.ResponseWriter, r *http.Request) {
	snap, err := s.analyze(r.Context())
	if err != nil {
		s.respondErr(w, r, "calculate metrics", err)
		return
	}

	start := time.Now()
	err = s.store.SaveNodeMetrics(r.Context(), resilience.StoredMetrics(snap.Metrics, time.Now()))
	s.metrics.RecordStoreOperation("save_metrics", err, time.Since(start))
	if err != nil {
		s.respondErr(w, r, "save metrics", err)
		return
	}

	m := snap.Metrics
	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Message:        "Metrics calculated successfully",
		NodeMetrics:    m.NodeMetrics,
		NetworkStats:   m.NetworkStats,
		Bottlenecks:    m.Bottlenecks,
		CriticalNodes:  m.CriticalNodes,
		CriticalRoutes: m.CriticalRoutes,
	})
}

func (s *Server) bottlenecks(w http.ResponseWriter, r *http.Request) {
	snap, err := s.analyze(r.Context())
	if err != nil {
		s.respondErr(w, r, "identify bottlenecks", err)
		return
	}
	b := snap.Metrics.Bottlenecks
	s.respondJSON(w, http.StatusOK, BottlenecksResponse{Count: len(b), Bottlenecks: b})
}

func (s *Server) criticalNodes(w http.ResponseWriter, r *http.Request) {
	snap, err := s.analyze(r.Context())
	if err != nil {
		s.respondErr(w, r, "identify critical nodes", err)
		return
	}
	c := snap.Metrics.CriticalNodes
	s.respondJSON(w, http.StatusOK, CriticalNodesResponse{Count: len(c), CriticalNodes: c})
}

func (s *Server) criticalRoutes(w http.ResponseWriter, r *http.Request) {
	snap, err := s.analyze(r.Context())
	if err != nil {
		s.respondErr(w, r, "identify critical routes", err)
		return
	}
	c := snap.Metrics.CriticalRoutes
	s.respondJSON(w, http.StatusOK, CriticalRoutesResponse{Count: len(c), CriticalRoutes: c})
}

func (s *Server) networkHealth(w http.ResponseWriter, r *http.Request) {
	snap, err := s.analyze(r.Context())
	if err != nil {
		s.respondErr(w, r, "assess network health", err)
		return
	}
	s.respondJSON(w, http.StatusOK, snap.Assessment)
}

// buildGraph loads the stored network without running the metric suite.
func (s *Server) buildGraph(ctx context.Context) (*graph.Graph, error) {
	nodes, routes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, algorithms.ErrEmptyGraph
	}
	cfg := s.metricsConfig()
	return graph.Build(nodes, routes,
		graph.WithDanglingPolicy(cfg.Dangling),
		graph.WithLogger(s.logger))
}

// decodeDisruption reads a disruption request body into a target.
func (s *Server) decodeDisruption(w http.ResponseWriter, r *http.Request) (algorithms.DisruptionTarget, bool) {
	var req validation.DisruptionRequest
	var target algorithms.DisruptionTarget
	if s.decode(w, r).
		JSON(&req).
		Validate(func() error { return validation.ValidateDisruptionRequest(&req) }).
		Validate(func() (err error) {
			target, err = algorithms.NewDisruptionTarget(req.NodeID, req.EdgeSource, req.EdgeTarget)
			return err
		}).
		RespondError() {
		return target, false
	}
	return target, true
}

func (s *Server) simulateDisruption(w http.ResponseWriter, r *http.Request) {
	target, ok := s.decodeDisruption(w, r)
	if !ok {
		return
	}

	ctx, cancel := s.analysisContext(r.Context())
	defer cancel()
	start := time.Now()
	report, err := s.runDisruption(ctx, target)
	s.metrics.RecordAnalysis("disruption", err, time.Since(start))
	if err != nil {
		s.respondErr(w, r, "simulate disruption", err)
		return
	}

	res := report.Result
	s.logger.Info("disruption simulated",
		logging.String("target", target.String()),
		logging.String("kind", string(target.Kind)),
		logging.Int("affected", len(res.AffectedNodes)),
		logging.Int("alternatives", len(report.AlternativePaths)))

	s.respondJSON(w, http.StatusOK, DisruptionResponse{
		Message:          "Disruption simulated successfully",
		DisruptionType:   target.Kind,
		DisruptedElement: disruptedElement(target),
		Applied:          res.Applied,
		Impact: DisruptionImpact{
			AffectedNodes:     res.AffectedNodes,
			NetworkSizeBefore: res.NodeCountBefore,
			NetworkSizeAfter:  res.NodeCountAfter,
			EdgesBefore:       res.EdgeCountBefore,
			EdgesAfter:        res.EdgeCountAfter,
			NodesDisconnected: len(res.AffectedNodes),
		},
		AlternativePaths: report.AlternativePaths,
		Recommendation:   report.Recommendation,
	})
}

func (s *Server) runDisruption(ctx context.Context, target algorithms.DisruptionTarget) (*resilience.DisruptionReport, error) {
	g, err := s.buildGraph(ctx)
	if err != nil {
		return nil, err
	}
	return resilience.SimulateDisruptionContext(ctx, g, target, s.cfg.Analysis.MaxPaths, s.disruptionOptions()...)
}

func disruptedElement(t algorithms.DisruptionTarget) string {
	if t.Kind == algorithms.DisruptEdge {
		return t.EdgeSource + " -> " + t.EdgeTarget
	}
	return t.NodeID
}

// findPaths lists alternative routes between two facilities, cheapest first.
func (s *Server) findPaths(w http.ResponseWriter, r *http.Request) {
	var req validation.PathRequest
	if s.decode(w, r).
		JSON(&req).
		Validate(func() error { return validation.ValidatePathRequest(&req) }).
		RespondError() {
		return
	}
	maxPaths := validation.DefaultOrInt(req.MaxPaths, s.cfg.Analysis.MaxPaths)

	ctx, cancel := s.analysisContext(r.Context())
	defer cancel()
	start := time.Now()
	g, err := s.buildGraph(ctx)
	if err != nil {
		s.metrics.RecordAnalysis("paths", err, time.Since(start))
		s.respondErr(w, r, "find paths", err)
		return
	}
	if !g.HasNode(req.Source) || !g.HasNode(req.Target) {
		s.respondError(w, http.StatusNotFound, "Source or target node not found in network")
		return
	}

	paths, err := algorithms.FindAlternativePathsContext(ctx, g, req.Source, req.Target, maxPaths)
	s.metrics.RecordAnalysis("paths", err, time.Since(start))
	if err != nil {
		s.respondErr(w, r, "find paths", err)
		return
	}
	summaries := algorithms.SummarizePaths(g, paths)
	s.respondJSON(w, http.StatusOK, PathsResponse{
		Source:     req.Source,
		Target:     req.Target,
		PathsFound: len(summaries),
		Paths:      summaries,
	})
}

func (s *Server) reachabilityDelta(w http.ResponseWriter, r *http.Request) {
	target, ok := s.decodeDisruption(w, r)
	if !ok {
		return
	}

	ctx, cancel := s.analysisContext(r.Context())
	defer cancel()
	start := time.Now()
	g, err := s.buildGraph(ctx)
	if err != nil {
		s.metrics.RecordAnalysis("reachability", err, time.Since(start))
		s.respondErr(w, r, "compute reachability", err)
		return
	}
	delta, err := algorithms.ComputeReachabilityDelta(g, target, s.disruptionOptions()...)
	s.metrics.RecordAnalysis("reachability", err, time.Since(start))
	if err != nil {
		s.respondErr(w, r, "compute reachability", err)
		return
	}
	s.respondJSON(w, http.StatusOK, delta)
}
