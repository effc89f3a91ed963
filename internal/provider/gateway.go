package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/flemzord/chatdigest/internal/provider"

// Call outcomes reported to the Observer.
const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeEmpty     = "empty"
	OutcomeMalformed = "malformed"
	OutcomeError     = "error"
)

// Observer receives one event per backend call.
type Observer interface {
	ObserveProviderCall(backend, outcome string, elapsed time.Duration)
}

// Gateway routes chats to backends and enforces the structured-output
// contract on every response. It is safe for concurrent use.
type Gateway struct {
	mu       sync.RWMutex
	backends map[string]Backend
	routes   map[int64]string
	fallback string

	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithObserver sets the per-call observer (metrics).
func WithObserver(o Observer) Option {
	return func(g *Gateway) { g.observer = o }
}

// WithTracer overrides the tracer. Defaults to the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(g *Gateway) { g.tracer = t }
}

// WithDefaultBackend routes chats without an explicit route to name.
func WithDefaultBackend(name string) Option {
	return func(g *Gateway) { g.fallback = name }
}

// NewGateway creates an empty gateway. Register backends, then Route chats.
func NewGateway(opts ...Option) *Gateway {
	g := &Gateway{
		backends: make(map[string]Backend),
		routes:   make(map[int64]string),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = NopLogger()
	}
	if g.tracer == nil {
		g.tracer = otel.Tracer(tracerName)
	}
	return g
}

// Register adds a backend under its Name.
func (g *Gateway) Register(b Backend) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.backends[b.Name()] = b
}

// Route assigns a chat to a registered backend.
func (g *Gateway) Route(chatID int64, backend string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.backends[backend]; !ok {
		return fmt.Errorf("provider: route chat %d: unknown backend %q", chatID, backend)
	}
	g.routes[chatID] = backend
	return nil
}

// Backend returns a registered backend by name.
func (g *Gateway) Backend(name string) (Backend, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	b, ok := g.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: backend %q", ErrNoBackend, name)
	}
	return b, nil
}

// BackendFor returns the backend assigned to chatID.
func (g *Gateway) BackendFor(chatID int64) (Backend, error) {
	g.mu.RLock()
	name, ok := g.routes[chatID]
	if !ok {
		name = g.fallback
	}
	b, found := g.backends[name]
	g.mu.RUnlock()

	if name == "" || !found {
		return nil, fmt.Errorf("%w: chat %d", ErrNoBackend, chatID)
	}
	return b, nil
}

// Routed reports whether chatID resolves to a backend.
func (g *Gateway) Routed(chatID int64) bool {
	_, err := g.BackendFor(chatID)
	return err == nil
}

// Backends returns the registered backend names, sorted.
func (g *Gateway) Backends() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.backends))
	for name := range g.backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Invoke sends req to b under contract c and decodes the checked payload
// into out. Errors wrap exactly one of ErrRejected, ErrEmptyResult, or
// ErrProviderError (ErrMalformedResponse wraps ErrProviderError).
func (g *Gateway) Invoke(ctx context.Context, b Backend, req Request, c *Contract, out any) error {
	if req.Schema == nil {
		req.Schema = c.Schema
	}
	if req.SchemaName == "" {
		req.SchemaName = c.Name
	}

	ctx, span := g.tracer.Start(ctx, "provider.invoke", trace.WithAttributes(
		attribute.String("backend", b.Name()),
		attribute.String("contract", c.Name),
		attribute.Int64("chat", req.ChatID),
	))
	defer span.End()

	start := time.Now()
	err := g.invoke(ctx, b, req, c, out)
	outcome := OutcomeOf(err)
	elapsed := time.Since(start)

	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	if g.observer != nil {
		g.observer.ObserveProviderCall(b.Name(), outcome, elapsed)
	}

	g.logger.Debug("provider call",
		"backend", b.Name(),
		"contract", c.Name,
		"chat_id", req.ChatID,
		"outcome", outcome,
		"elapsed", elapsed,
	)
	return err
}

func (g *Gateway) invoke(ctx context.Context, b Backend, req Request, c *Contract, out any) error {
	raw, err := b.Invoke(ctx, req)
	if err != nil {
		return Classify(b.Name(), err)
	}

	obj, err := ExtractJSON(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrProviderError, b.Name(), err)
	}
	if err := c.Decode(obj, out); err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			return fmt.Errorf("%w: %s: %w", ErrProviderError, b.Name(), err)
		}
		return err
	}
	return nil
}

// OutcomeOf names the taxonomy bucket of err.
func OutcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrRejected):
		return OutcomeRejected
	case errors.Is(err, ErrEmptyResult):
		return OutcomeEmpty
	case errors.Is(err, ErrMalformedResponse):
		return OutcomeMalformed
	default:
		return OutcomeError
	}
}
