package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Report is the application part of GET /status.
type Report struct {
	Version      string         `json:"version"`
	Backends     []string       `json:"backends"`
	RoutedChats  int            `json:"routed_chats"`
	AllowedChats int            `json:"allowed_chats"`
	EnabledChats int            `json:"enabled_chats"`
	Jobs         []string       `json:"jobs"`
	Config       map[string]any `json:"config,omitempty"`
}

// Reporter builds the current Report.
type Reporter func(ctx context.Context) Report

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime int64 `json:"uptime_seconds"`
	Report
}

func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			Uptime: int64(time.Since(s.startedAt) / time.Second),
		}
		if s.reporter != nil {
			resp.Report = s.reporter(r.Context())
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
