package graphql

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/metrics"
)

// GraphQLRequest represents a GraphQL HTTP request
type GraphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// GraphQLResponse represents a GraphQL HTTP response
type GraphQLResponse struct {
	Data   any            `json:"data,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// GraphQLError represents a GraphQL error
type GraphQLError struct {
	Message string `json:"message"`
}

// GraphQLHandler handles GraphQL HTTP requests
type GraphQLHandler struct {
	schema   graphql.Schema
	maxDepth int
	logger   logging.Logger
	metrics  *metrics.Registry
}

type HandlerOption func(*GraphQLHandler)

// WithMaxDepth overrides DefaultMaxDepth. Zero disables the depth check.
func WithMaxDepth(depth int) HandlerOption {
	return func(h *GraphQLHandler) { h.maxDepth = depth }
}

func WithLogger(l logging.Logger) HandlerOption {
	return func(h *GraphQLHandler) { h.logger = l }
}

// WithMetrics records every query as a "graphql" analysis run.
func WithMetrics(m *metrics.Registry) HandlerOption {
	return func(h *GraphQLHandler) { h.metrics = m }
}

// NewGraphQLHandler creates a new GraphQL HTTP handler
func NewGraphQLHandler(schema graphql.Schema, opts ...HandlerOption) *GraphQLHandler {
	h := &GraphQLHandler{
		schema:   schema,
		maxDepth: DefaultMaxDepth,
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(logging.Component("graphql"))
	return h
}

func (h *GraphQLHandler) writeJSON(w http.ResponseWriter, status int, resp GraphQLResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("failed to encode graphql response", logging.Error(err))
	}
}

// ServeHTTP executes POSTed queries. Query errors are reported in the
// response body with status 200.
func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.writeJSON(w, http.StatusMethodNotAllowed, GraphQLResponse{
			Errors: []GraphQLError{{Message: "method not allowed"}},
		})
		return
	}

	var req GraphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, GraphQLResponse{
			Errors: []GraphQLError{{Message: "invalid request body"}},
		})
		return
	}
	if req.Query == "" {
		h.writeJSON(w, http.StatusBadRequest, GraphQLResponse{
			Errors: []GraphQLError{{Message: "query is required"}},
		})
		return
	}

	start := time.Now()
	result := ExecuteWithDepthLimit(r.Context(), h.schema, req.Query, req.Variables, req.OperationName, h.maxDepth)

	response := GraphQLResponse{Data: result.Data}
	var firstErr error
	if result.HasErrors() {
		response.Errors = make([]GraphQLError, len(result.Errors))
		for i, err := range result.Errors {
			response.Errors[i] = GraphQLError{Message: err.Message}
		}
		firstErr = result.Errors[0]
		h.logger.Debug("graphql query returned errors",
			logging.Count(len(result.Errors)),
			logging.String("first_error", result.Errors[0].Message))
	}
	if h.metrics != nil {
		h.metrics.RecordAnalysis("graphql", firstErr, time.Since(start))
	}

	h.writeJSON(w, http.StatusOK, response)
}
