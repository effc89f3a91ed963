// Package gateway serves the operator endpoints: health, Prometheus
// metrics and an authenticated status report.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Server is the ops HTTP server. It implements core.Validator,
// core.Starter and core.Stopper.
type Server struct {
	cfg       Config
	logger    *slog.Logger
	store     Pinger
	gatherer  prometheus.Gatherer
	reporter  Reporter
	server    *http.Server
	startedAt time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithStore checks p on every /health request.
func WithStore(p Pinger) Option {
	return func(s *Server) { s.store = p }
}

// WithGatherer serves g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithReporter fills the /status body.
func WithReporter(r Reporter) Option {
	return func(s *Server) { s.reporter = r }
}

// NewServer creates an ops server. Call Start to listen.
func NewServer(cfg Config, opts ...Option) *Server {
	cfg.Defaults()
	s := &Server{cfg: cfg, startedAt: time.Now()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Validate implements core.Validator.
func (s *Server) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", s.cfg.Bind); err != nil {
		return fmt.Errorf("gateway: invalid bind address %q: %w", s.cfg.Bind, err)
	}
	return nil
}

// Start implements core.Starter.
func (s *Server) Start() error {
	s.startedAt = time.Now()
	s.server = &http.Server{
		Addr:              s.cfg.Bind,
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", s.cfg.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen: %w", err)
	}

	go func() {
		s.logger.Info("ops server listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("ops server error", "error", err)
		}
	}()
	return nil
}

// Stop implements core.Stopper. Graceful shutdown with configured timeout.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("ops server shutting down")
	return s.server.Shutdown(shutdownCtx)
}
