package api

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"sort"
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/audit"
	"github.com/dd0wney/cluso-resilience/pkg/dataset"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/validation"
)

// datasetFormat picks the decoder from the Content-Type header. JSON is the default.
func datasetFormat(r *http.Request) dataset.Format {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return dataset.FormatYAML
	default:
		return dataset.FormatJSON
	}
}

// importDataset bulk-loads a network file. Nodes are upserted first; routes
// whose endpoints are in neither the file nor the store are skipped and
// reported rather than failing the whole import.
func (s *Server) importDataset(w http.ResponseWriter, r *http.Request) {
	snap, err := dataset.Decode(r.Body, datasetFormat(r))
	if err != nil {
		var maxBytes *http.MaxBytesError
		if !errors.As(err, &maxBytes) && !validation.IsValidationError(err) {
			err = fmt.Errorf("%w: %v", algorithms.ErrInvalidRequest, err)
		}
		s.respondErr(w, r, "import dataset", err)
		return
	}
	if len(snap.Nodes) == 0 && len(snap.Routes) == 0 {
		s.respondError(w, http.StatusBadRequest, "dataset contains no nodes or routes")
		return
	}

	ctx := r.Context()
	start := time.Now()
	resp := ImportResponse{Message: "Dataset imported successfully"}

	for _, n := range snap.Nodes {
		if err := s.store.UpsertNode(ctx, n); err != nil {
			s.metrics.RecordStoreOperation("import", err, time.Since(start))
			s.respondErr(w, r, "import dataset", err)
			return
		}
		resp.NodesInserted++
	}

	existing, err := s.store.ListNodes(ctx)
	if err != nil {
		s.respondErr(w, r, "import dataset", err)
		return
	}
	known := make(map[string]struct{}, len(existing))
	for _, n := range existing {
		known[n.NodeID] = struct{}{}
	}

	missing := map[string]struct{}{}
	for _, rt := range snap.Routes {
		_, hasSource := known[rt.Source]
		_, hasTarget := known[rt.Target]
		if !hasSource {
			missing[rt.Source] = struct{}{}
		}
		if !hasTarget {
			missing[rt.Target] = struct{}{}
		}
		if !hasSource || !hasTarget {
			resp.RoutesSkipped++
			continue
		}
		if err := s.store.UpsertRoute(ctx, rt); err != nil {
			resp.RoutesSkipped++
			resp.RouteErrors = append(resp.RouteErrors, RouteError{Source: rt.Source, Target: rt.Target, Error: err.Error()})
			continue
		}
		resp.RoutesInserted++
	}
	s.metrics.RecordStoreOperation("import", nil, time.Since(start))

	if len(missing) > 0 {
		for id := range missing {
			resp.MissingNodes = append(resp.MissingNodes, id)
		}
		sort.Strings(resp.MissingNodes)
		resp.Warning = fmt.Sprintf("%d route(s) skipped due to missing nodes", resp.RoutesSkipped-len(resp.RouteErrors))
	}

	s.logger.Info("dataset imported",
		logging.Int("nodes", resp.NodesInserted),
		logging.Int("routes", resp.RoutesInserted),
		logging.Int("skipped", resp.RoutesSkipped))
	s.record(r, audit.ActionImport, audit.ResourceDataset, "", map[string]any{
		"nodesInserted":  resp.NodesInserted,
		"routesInserted": resp.RoutesInserted,
		"routesSkipped":  resp.RoutesSkipped,
	})
	s.respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) clearAll(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	nodes, routes, err := s.store.Clear(r.Context())
	s.metrics.RecordStoreOperation("clear", err, time.Since(start))
	if err != nil {
		s.respondErr(w, r, "clear data", err)
		return
	}
	s.logger.Warn("all network data cleared",
		logging.Int64("nodes", nodes),
		logging.Int64("routes", routes))
	s.record(r, audit.ActionClear, audit.ResourceDataset, "", map[string]any{
		"nodesDeleted":  nodes,
		"routesDeleted": routes,
	})
	s.respondJSON(w, http.StatusOK, ClearResponse{
		Message:       "All data cleared successfully",
		NodesDeleted:  nodes,
		RoutesDeleted: routes,
	})
}
