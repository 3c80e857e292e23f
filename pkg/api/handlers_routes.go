package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/audit"
	"github.com/dd0wney/cluso-resilience/pkg/graph"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/storage"
	"github.com/dd0wney/cluso-resilience/pkg/validation"
)

func (s *Server) listRoutes(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	routes, err := s.store.ListRoutes(r.Context())
	s.metrics.RecordStoreOperation("list_routes", err, time.Since(start))
	if err != nil {
		s.respondErr(w, r, "list routes", err)
		return
	}
	s.respondJSON(w, http.StatusOK, RouteListResponse{Count: len(routes), Routes: routes})
}

// requireEndpoints checks that both ends of a route are stored nodes.
func (s *Server) requireEndpoints(ctx context.Context, rec *graph.RouteRecord) error {
	for _, end := range [...]struct{ field, id string }{{"source", rec.Source}, {"target", rec.Target}} {
		if _, err := s.store.GetNode(ctx, end.id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return &validation.FieldError{Field: end.field, Message: fmt.Sprintf("node %q does not exist", end.id)}
			}
			return err
		}
	}
	return nil
}

func (s *Server) upsertRoute(w http.ResponseWriter, r *http.Request) {
	var rec graph.RouteRecord
	if s.decode(w, r).
		JSON(&rec).
		Validate(func() error {
			rec.ApplyDefaults()
			return validation.ValidateRouteRecord(&rec)
		}).
		Validate(func() error { return s.requireEndpoints(r.Context(), &rec) }).
		RespondError() {
		return
	}

	start := time.Now()
	err := s.store.UpsertRoute(r.Context(), rec)
	s.metrics.RecordStoreOperation("upsert_route", err, time.Since(start))
	if err != nil {
		s.respondErr(w, r, "upsert route", err)
		return
	}
	s.logger.Info("route saved", logging.Route(rec.Source, rec.Target))
	s.record(r, audit.ActionCreate, audit.ResourceRoute, rec.Source+"->"+rec.Target, nil)
	s.respondJSON(w, http.StatusCreated, rec)
}

// deleteRoute removes the route named by ?source=&target=.
func (s *Server) deleteRoute(w http.ResponseWriter, r *http.Request) {
	source, target := r.URL.Query().Get("source"), r.URL.Query().Get("target")
	if source == "" || target == "" {
		s.respondError(w, http.StatusBadRequest, "source and target query parameters are required")
		return
	}

	start := time.Now()
	err := s.store.DeleteRoute(r.Context(), source, target)
	s.metrics.RecordStoreOperation("delete_route", err, time.Since(start))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Route not found")
			return
		}
		s.respondErr(w, r, "delete route", err)
		return
	}
	s.logger.Info("route deleted", logging.Route(source, target))
	s.record(r, audit.ActionDelete, audit.ResourceRoute, source+"->"+target, nil)
	s.respondJSON(w, http.StatusOK, MessageResponse{Message: "Route deleted successfully"})
}

func (s *Server) routeStats(w http.ResponseWriter, r *http.Request) {
	routes, err := s.store.ListRoutes(r.Context())
	if err != nil {
		s.respondErr(w, r, "route statistics", err)
		return
	}

	byStatus := map[string]int{}
	byMode := map[string]int{}
	byRisk := map[string]int{}
	var totals RouteTotals
	var totalTime float64
	for _, rt := range routes {
		byStatus[string(rt.Status)]++
		byMode[string(rt.TransportMode)]++
		byRisk[string(rt.RiskLevel)]++
		totals.TotalDistance += rt.Distance
		totals.TotalCost += rt.Cost
		totalTime += rt.Time
	}
	if n := float64(len(routes)); n > 0 {
		totals.AvgDistance = totals.TotalDistance / n
		totals.AvgCost = totals.TotalCost / n
		totals.AvgTime = totalTime / n
	}

	s.respondJSON(w, http.StatusOK, RouteStatsResponse{
		TotalRoutes:     len(routes),
		ByStatus:        groupCounts(byStatus),
		ByTransportMode: groupCounts(byMode),
		ByRiskLevel:     groupCounts(byRisk),
		Metrics:         totals,
	})
}
