package api

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/audit"
	"github.com/dd0wney/cluso-resilience/pkg/graph"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/storage"
	"github.com/dd0wney/cluso-resilience/pkg/validation"
)

func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	nodes, err := s.store.ListNodes(r.Context())
	s.metrics.RecordStoreOperation("list_nodes", err, time.Since(start))
	if err != nil {
		s.respondErr(w, r, "list nodes", err)
		return
	}
	s.respondJSON(w, http.StatusOK, NodeListResponse{Count: len(nodes), Nodes: nodes})
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	node, err := s.store.GetNode(r.Context(), r.PathValue("nodeId"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Node not found")
			return
		}
		s.respondErr(w, r, "get node", err)
		return
	}
	s.respondJSON(w, http.StatusOK, node)
}

// upsertNode creates a node or replaces its attributes, answering 201 or 200.
func (s *Server) upsertNode(w http.ResponseWriter, r *http.Request) {
	var rec graph.NodeRecord
	if s.decode(w, r).
		JSON(&rec).
		Validate(func() error {
			rec.ApplyDefaults()
			return validation.ValidateNodeRecord(&rec)
		}).
		RespondError() {
		return
	}

	ctx := r.Context()
	_, err := s.store.GetNode(ctx, rec.NodeID)
	created := errors.Is(err, storage.ErrNotFound)
	if err != nil && !created {
		s.respondErr(w, r, "upsert node", err)
		return
	}

	start := time.Now()
	err = s.store.UpsertNode(ctx, rec)
	s.metrics.RecordStoreOperation("upsert_node", err, time.Since(start))
	if err != nil {
		s.respondErr(w, r, "upsert node", err)
		return
	}
	saved, err := s.store.GetNode(ctx, rec.NodeID)
	if err != nil {
		s.respondErr(w, r, "upsert node", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.logger.Info("node saved", logging.NodeID(rec.NodeID), logging.Bool("created", created))
	action := audit.ActionUpdate
	if created {
		action = audit.ActionCreate
	}
	s.record(r, action, audit.ResourceNode, rec.NodeID, nil)
	s.respondJSON(w, status, saved)
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("nodeId")
	start := time.Now()
	err := s.store.DeleteNode(r.Context(), id)
	s.metrics.RecordStoreOperation("delete_node", err, time.Since(start))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Node not found")
			return
		}
		s.respondErr(w, r, "delete node", err)
		return
	}
	s.logger.Info("node deleted", logging.NodeID(id))
	s.record(r, audit.ActionDelete, audit.ResourceNode, id, nil)
	s.respondJSON(w, http.StatusOK, MessageResponse{Message: "Node deleted successfully"})
}

func (s *Server) nodeStats(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.store.ListNodes(r.Context())
	if err != nil {
		s.respondErr(w, r, "node statistics", err)
		return
	}
	byType := map[string]int{}
	byStatus := map[string]int{}
	byRegion := map[string]int{}
	for _, n := range nodes {
		byType[string(n.Type)]++
		byStatus[string(n.Status)]++
		byRegion[n.Region]++
	}
	s.respondJSON(w, http.StatusOK, NodeStatsResponse{
		TotalNodes: len(nodes),
		ByType:     groupCounts(byType),
		ByStatus:   groupCounts(byStatus),
		ByRegion:   groupCounts(byRegion),
	})
}

// groupCounts flattens a count map into buckets sorted by key.
func groupCounts(m map[string]int) []GroupCount {
	out := make([]GroupCount, 0, len(m))
	for k, n := range m {
		out = append(out, GroupCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
