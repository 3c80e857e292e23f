// Package api exposes the resilience engine over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/api/middleware"
	"github.com/dd0wney/cluso-resilience/pkg/audit"
	"github.com/dd0wney/cluso-resilience/pkg/config"
	"github.com/dd0wney/cluso-resilience/pkg/graph"
	"github.com/dd0wney/cluso-resilience/pkg/health"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/metrics"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
	"github.com/dd0wney/cluso-resilience/pkg/scheduler"
	"github.com/dd0wney/cluso-resilience/pkg/storage"
)

// Version is reported by GET /version. Set at link time.
var Version = "dev"

// Options carries the collaborators of a Server. Store and Config are
// required; everything else has a usable default.
type Options struct {
	Store   storage.Store
	Config  *config.Config
	Logger  logging.Logger
	Metrics *metrics.Registry
	Health  *health.HealthChecker
	Jobs    *scheduler.Registry
	GraphQL http.Handler
	Audit   *audit.Logger
}

// Server represents the HTTP API server
type Server struct {
	store   storage.Store
	cfg     *config.Config
	logger  logging.Logger
	metrics *metrics.Registry
	health  *health.HealthChecker
	jobs    *scheduler.Registry
	graphql http.Handler
	audit   *audit.Logger
	proxies middleware.TrustedProxies
	limiter *middleware.RateLimiter
	started time.Time
	handler http.Handler
}

// NewServer validates opts and builds the routed, wrapped handler.
func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("api: store is required")
	}
	if opts.Config == nil {
		return nil, errors.New("api: config is required")
	}
	proxies, err := middleware.ParseTrustedProxies(opts.Config.Server.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	s := &Server{
		store:   opts.Store,
		cfg:     opts.Config,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		health:  opts.Health,
		jobs:    opts.Jobs,
		graphql: opts.GraphQL,
		audit:   opts.Audit,
		proxies: proxies,
		started: time.Now(),
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	s.logger = s.logger.With(logging.Component("api"))
	if s.audit == nil {
		s.audit = audit.NewLogger(opts.Config.Server.AuditBufferSize)
	}
	if s.metrics == nil {
		s.metrics = metrics.DefaultRegistry()
	}
	if s.health == nil {
		s.health = health.NewHealthChecker()
		s.health.RegisterReadinessCheck("store", health.StoreCheck(s.store))
	}
	if rps := opts.Config.Server.AnalysisRateLimit; rps > 0 {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = rps
		rl.BurstSize = opts.Config.Server.AnalysisBurst
		s.limiter = middleware.NewRateLimiter(rl, s.logger)
		s.limiter.OnReject(func(r *http.Request) { s.metrics.RecordRateLimited(r.Pattern) })
	}

	s.handler = s.withMiddleware(s.routes())
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close releases background resources. The store is owned by the caller.
func (s *Server) Close() error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health.HTTPHandler())
	mux.HandleFunc("GET /health/live", s.health.LivenessHandler())
	mux.HandleFunc("GET /health/ready", s.health.ReadinessHandler())
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("GET /api/nodes", s.listNodes)
	mux.HandleFunc("POST /api/nodes", s.upsertNode)
	mux.HandleFunc("GET /api/nodes/stats/summary", s.nodeStats)
	mux.HandleFunc("GET /api/nodes/{nodeId}", s.getNode)
	mux.HandleFunc("DELETE /api/nodes/{nodeId}", s.deleteNode)

	mux.HandleFunc("GET /api/routes", s.listRoutes)
	mux.HandleFunc("POST /api/routes", s.upsertRoute)
	mux.HandleFunc("DELETE /api/routes", s.deleteRoute)
	mux.HandleFunc("GET /api/routes/stats/summary", s.routeStats)

	mux.HandleFunc("POST /api/upload", s.importDataset)
	mux.HandleFunc("DELETE /api/upload/clear-all", s.clearAll)

	analytics := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.RateLimit(s.limiter, s.proxies.ClientIP)(h))
	}
	analytics("GET /api/analytics/metrics", s.computeMetrics)
	analytics("GET /api/analytics/bottlenecks", s.bottlenecks)
	analytics("GET /api/analytics/critical-nodes", s.criticalNodes)
	analytics("GET /api/analytics/critical-routes", s.criticalRoutes)
	analytics("POST /api/analytics/simulate-disruption", s.simulateDisruption)
	analytics("POST /api/analytics/find-paths", s.findPaths)
	analytics("POST /api/analytics/reachability-delta", s.reachabilityDelta)
	analytics("GET /api/analytics/network-health", s.networkHealth)

	mux.HandleFunc("GET /api/jobs", s.listJobs)
	mux.HandleFunc("GET /api/audit", s.listAudit)

	if s.graphql != nil {
		mux.Handle("/graphql", s.graphql)
	}
	return mux
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, VersionResponse{
		Version:       Version,
		UptimeSeconds: time.Since(s.started).Seconds(),
	})
}

// metricsConfig is the analysis configuration for one request.
func (s *Server) metricsConfig() algorithms.MetricsConfig {
	cfg := s.cfg.MetricsConfig()
	cfg.Logger = s.logger
	return cfg
}

func (s *Server) disruptionOptions() []algorithms.DisruptionOption {
	return []algorithms.DisruptionOption{
		algorithms.WithMissingTargetPolicy(s.cfg.MissingTargetPolicy()),
		algorithms.WithDisruptionLogger(s.logger),
	}
}

// analysisContext bounds a request's analysis by the configured timeout.
func (s *Server) analysisContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Analysis.Timeout > 0 {
		return context.WithTimeout(ctx, s.cfg.Analysis.Timeout)
	}
	return context.WithCancel(ctx)
}

// analyze loads the stored network and runs a full analysis, publishing the
// network gauges on success.
func (s *Server) analyze(ctx context.Context) (*resilience.Snapshot, error) {
	ctx, cancel := s.analysisContext(ctx)
	defer cancel()

	start := time.Now()
	nodes, routes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := resilience.Analyze(ctx, nodes, routes, s.metricsConfig())
	s.metrics.RecordAnalysis("metrics", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	stats := snap.Metrics.NetworkStats
	s.metrics.UpdateNetwork(metrics.NetworkSnapshot{
		Nodes:         stats.TotalNodes,
		Routes:        stats.TotalEdges,
		Density:       stats.Density,
		Bottlenecks:   len(snap.Metrics.Bottlenecks),
		CriticalNodes: len(snap.Metrics.CriticalNodes),
	})
	s.metrics.SetHealthScore(float64(snap.Assessment.Score))
	return snap, nil
}

// load reads the network from the store, timing both list calls.
func (s *Server) load(ctx context.Context) ([]graph.NodeRecord, []graph.RouteRecord, error) {
	start := time.Now()
	nodes, routes, err := resilience.Load(ctx, s.store)
	s.metrics.RecordStoreOperation("load_network", err, time.Since(start))
	return nodes, routes, err
}
