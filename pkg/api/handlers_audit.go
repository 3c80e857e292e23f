package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/api/middleware"
	"github.com/dd0wney/cluso-resilience/pkg/audit"
)

const defaultAuditLimit = 100

// record appends a change event attributed to the caller of r.
func (s *Server) record(r *http.Request, action audit.Action, resource audit.ResourceType, id string, meta map[string]any) {
	s.audit.Log(&audit.Event{
		Action:       action,
		ResourceType: resource,
		ResourceID:   id,
		RequestID:    middleware.GetRequestID(r),
		IPAddress:    s.proxies.ClientIP(r),
		UserAgent:    r.UserAgent(),
		Metadata:     meta,
	})
}

// listAudit answers GET /api/audit?action=&resource=&id=&since=&limit=.
func (s *Server) listAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		Action:       audit.Action(q.Get("action")),
		ResourceType: audit.ResourceType(q.Get("resource")),
		ResourceID:   q.Get("id"),
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = since
	}
	limit := defaultAuditLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	events := s.audit.Recent(filter, limit)
	s.respondJSON(w, http.StatusOK, AuditResponse{
		Count:    len(events),
		Retained: s.audit.Count(),
		Events:   events,
	})
}
