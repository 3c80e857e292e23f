// Package middleware holds the HTTP middleware chain of the resilience API.
//
// Every constructor returns func(http.Handler) http.Handler so handlers can be
// wrapped in any order:
//
//	handler := middleware.PanicRecovery(logger)(mux)
//	handler = middleware.Logging(logger)(handler)
//	handler = middleware.RequestID()(handler)
//
// Error responses written by middleware use the same JSON envelope as the
// API handlers: {"error": ..., "message": ..., "code": ...}.
package middleware

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
