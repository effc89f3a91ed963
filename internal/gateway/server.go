package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler constructs the chi mux with all routes wired.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Public, no auth required.
	r.Get("/health", s.handleHealth())
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	// Not mounted without a token.
	if s.cfg.BearerToken != "" {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(s.cfg.BearerToken, s.logger))
			r.Get("/status", s.handleStatus())
		})
	}

	return r
}
