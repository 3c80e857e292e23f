package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/api/middleware"
	"github.com/dd0wney/cluso-resilience/pkg/graph"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/storage"
	"github.com/dd0wney/cluso-resilience/pkg/validation"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// respondErr maps an error to a status code. Client errors carry their
// message; anything unexpected is logged and reported as "<operation> failed".
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, operation string, err error) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, algorithms.ErrEmptyGraph):
		s.respondError(w, http.StatusBadRequest, "No nodes found. Please upload data first.")
	case errors.Is(err, graph.ErrDanglingEdge), errors.Is(err, graph.ErrSelfLoop), errors.Is(err, graph.ErrDuplicateNode):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, algorithms.ErrInvalidRequest), validation.IsValidationError(err):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, algorithms.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &maxBytes):
		s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn(operation+" timed out", logging.RequestID(middleware.GetRequestID(r)))
		s.respondError(w, http.StatusServiceUnavailable, operation+" timed out")
	default:
		s.logger.Error(operation+" failed",
			logging.Error(err),
			logging.Operation(operation),
			logging.RequestID(middleware.GetRequestID(r)))
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("%s failed", operation))
	}
}

// requestDecoder decodes and validates request bodies with a fluent
// interface. The first failure sticks; RespondError writes it.
type requestDecoder struct {
	w      http.ResponseWriter
	r      *http.Request
	server *Server
	err    error
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) *requestDecoder {
	return &requestDecoder{w: w, r: r, server: s}
}

// JSON decodes the body into v, rejecting unknown fields.
func (rd *requestDecoder) JSON(v any) *requestDecoder {
	if rd.err != nil {
		return rd
	}
	dec := json.NewDecoder(rd.r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			rd.err = err
			return rd
		}
		rd.err = fmt.Errorf("%w: invalid request body: %v", algorithms.ErrInvalidRequest, err)
	}
	return rd
}

// Validate runs fn when decoding succeeded.
func (rd *requestDecoder) Validate(fn func() error) *requestDecoder {
	if rd.err != nil {
		return rd
	}
	rd.err = fn()
	return rd
}

// RespondError writes the error, if any, and reports whether it did.
func (rd *requestDecoder) RespondError() bool {
	if rd.err == nil {
		return false
	}
	rd.server.respondErr(rd.w, rd.r, "decode request", rd.err)
	return true
}
