package api

import (
	"net/http"

	"github.com/dd0wney/cluso-resilience/pkg/api/middleware"
)

// withMiddleware wraps the mux, outermost first: request ID, panic
// recovery, security headers, CORS, body limit, logging, metrics. Logging
// and metrics sit directly on the mux so they see the matched pattern.
func (s *Server) withMiddleware(mux *http.ServeMux) http.Handler {
	var h http.Handler = mux
	h = middleware.Metrics(s.metrics)(h)
	h = middleware.Logging(s.logger)(h)
	h = middleware.BodySizeLimit(s.cfg.Server.MaxBodyBytes)(h)
	h = middleware.CORS(middleware.NewCORSConfig(s.cfg.Server.CORSAllowedOrigins))(h)
	h = middleware.SecurityHeaders()(h)
	h = middleware.PanicRecovery(s.logger)(h)
	h = middleware.RequestID()(h)
	return h
}
