// Package digest produces the thematic digest of one chat over a time
// range: it builds the window, asks the routed backend for topics at a
// degrading intensity, and renders the HTML message.
package digest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	ctxengine "github.com/flemzord/chatdigest/internal/context"
	"github.com/flemzord/chatdigest/internal/degrade"
	"github.com/flemzord/chatdigest/internal/prompt"
	"github.com/flemzord/chatdigest/internal/provider"
	"github.com/flemzord/chatdigest/internal/render"
	"github.com/flemzord/chatdigest/pkg/message"
)

const tracerName = "github.com/flemzord/chatdigest/internal/digest"

// DefaultMaxTokens is the prompt ceiling used when Config leaves it unset.
const DefaultMaxTokens = 30000

// Kind classifies a digest run.
type Kind int

const (
	// KindDone means a topic list was rendered.
	KindDone Kind = iota
	// KindEmpty means the window held no usable message; nothing was sent.
	KindEmpty
	// KindExhausted means every intensity level was rejected.
	KindExhausted
	// KindFailed means a technical error stopped the run.
	KindFailed
	// KindUnconfigured means the chat has no backend route.
	KindUnconfigured
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindDone:
		return "done"
	case KindEmpty:
		return "empty"
	case KindExhausted:
		return "exhausted"
	case KindFailed:
		return "failed"
	case KindUnconfigured:
		return "unconfigured"
	default:
		return "unknown"
	}
}

// Request is one digest invocation.
type Request struct {
	Chat message.Chat

	// Start and End bound the window: Start <= Time < End.
	Start time.Time
	End   time.Time

	Intensity int
}

// Outcome is the detailed result of Run.
type Outcome struct {
	Kind Kind

	// Text is the message to post. Empty for KindEmpty and KindUnconfigured.
	Text string

	Level     int
	Requested int
	Attempts  []degrade.Attempt
	Err       error
}

// Config tunes the service.
type Config struct {
	MaxTokens int
	MaxTopics int

	// Language is the language name the model writes in.
	Language string

	// Location dates the digest header.
	Location *time.Location
}

func (c Config) withDefaults() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.MaxTopics <= 0 {
		c.MaxTopics = render.DefaultMaxTopics
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	return c
}

// Service generates digests. It is safe for concurrent use.
type Service struct {
	builder    *ctxengine.Builder
	gateway    *provider.Gateway
	controller *degrade.Controller
	renderer   *render.Renderer
	cfg        Config
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTracer overrides the tracer. Defaults to the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// NewService wires the digest path.
func NewService(builder *ctxengine.Builder, gateway *provider.Gateway, controller *degrade.Controller, renderer *render.Renderer, cfg Config, opts ...Option) *Service {
	s := &Service{
		builder:    builder,
		gateway:    gateway,
		controller: controller,
		renderer:   renderer,
		cfg:        cfg.withDefaults(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = provider.NopLogger()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// Generate returns the digest message for req, or false when there is
// nothing to post. Exhausted and failed runs still produce a message.
func (s *Service) Generate(ctx context.Context, req Request) (string, bool) {
	out := s.Run(ctx, req)
	switch out.Kind {
	case KindEmpty, KindUnconfigured:
		return "", false
	default:
		return out.Text, true
	}
}

// Run executes one digest and reports how it ended.
func (s *Service) Run(ctx context.Context, req Request) Outcome {
	runID := uuid.NewString()
	requested := s.controller.Clamp(req.Intensity)
	logger := s.logger.With("run_id", runID, "chat_id", req.Chat.ID)

	ctx, span := s.tracer.Start(ctx, "digest.run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int64("chat", req.Chat.ID),
		attribute.Int("requested", requested),
	))
	defer span.End()

	out := s.run(ctx, logger, req, requested)
	span.SetAttributes(
		attribute.String("kind", out.Kind.String()),
		attribute.Int("level", out.Level),
	)
	if out.Err != nil {
		span.RecordError(out.Err)
	}
	return out
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, req Request, requested int) Outcome {
	out := Outcome{Requested: requested, Level: requested}
	date := req.Start.In(s.cfg.Location)

	backend, err := s.gateway.BackendFor(req.Chat.ID)
	if err != nil {
		logger.Warn("digest skipped, chat has no backend", "error", err)
		out.Kind = KindUnconfigured
		out.Err = err
		return out
	}
	logger = logger.With("backend", backend.Name())

	window, err := s.builder.Build(ctx, ctxengine.WindowRequest{
		ChatID:    req.Chat.ID,
		From:      req.Start,
		To:        req.End,
		MaxTokens: s.cfg.MaxTokens,
		Overhead:  s.overhead(requested),
	})
	if err != nil {
		logger.Error("digest window failed", "error", err)
		out.Kind = KindFailed
		out.Err = err
		out.Text = s.renderer.Failed(date)
		return out
	}
	if window.Empty() {
		logger.Info("digest skipped, window is empty", "candidates", window.Candidates)
		out.Kind = KindEmpty
		return out
	}

	res := degrade.Run(ctx, s.controller, requested, func(ctx context.Context, level int) (render.DigestResult, error) {
		var payload render.DigestResult
		err := s.gateway.Invoke(ctx, backend, provider.Request{
			System: prompt.DigestSystem,
			Prompt: s.instructions(level).Prompt(window.Text),
			ChatID: req.Chat.ID,
		}, render.DigestContract, &payload)
		return payload, err
	})

	out.Level = res.Level
	out.Attempts = res.Attempts
	out.Err = res.Err

	switch res.Outcome {
	case degrade.Done:
		out.Kind = KindDone
		out.Text = s.renderer.Render(date, res.Payload, window.Messages,
			render.TelegramChat{ID: req.Chat.ID, Username: req.Chat.Username},
			render.TelegramUsers{})
		logger.Info("digest generated",
			"level", res.Level,
			"topics", len(res.Payload.Topics),
			"rows", len(window.Messages),
			"tokens", window.Tokens,
		)
	case degrade.Exhausted:
		out.Kind = KindExhausted
		out.Text = s.renderer.Exhausted(date)
		logger.Warn("digest exhausted every intensity level", "requested", requested)
	default:
		out.Kind = KindFailed
		out.Text = s.renderer.Failed(date)
		level := slog.LevelError
		if errors.Is(res.Err, context.Canceled) {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "digest failed", "level", res.Level, "error", res.Err)
	}
	return out
}

func (s *Service) instructions(level int) prompt.Digest {
	return prompt.Digest{Level: level, MaxTopics: s.cfg.MaxTopics, Language: s.cfg.Language}
}

// overhead reserves the most expensive static prompt among the levels the
// run may fall back to.
func (s *Service) overhead(requested int) int {
	counter := s.builder.Counter()
	var worst int
	for level := requested; level >= 0; level-- {
		worst = max(worst, ctxengine.PromptCost(counter, prompt.DigestSystem, s.instructions(level).Prompt("")))
	}
	return worst
}
