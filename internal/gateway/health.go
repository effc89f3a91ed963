package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger checks a dependency, typically the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status string `json:"status"` // "ok" or "degraded"
	Store  string `json:"store"`
}

// handleHealth returns 200 when the store answers, 503 otherwise.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok", Store: "ok"}

		if s.store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := s.store.Ping(ctx); err != nil {
				s.logger.Warn("ops: store ping failed", "error", err)
				resp.Status = "degraded"
				resp.Store = "unavailable"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
