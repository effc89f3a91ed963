// Package reply answers chat messages addressed to the bot: trigger
// detection, the per-user daily quota, the thread and lookback context, and
// the degrading generation loop.
package reply

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/chatdigest/internal/chatlog"
	ctxengine "github.com/flemzord/chatdigest/internal/context"
	"github.com/flemzord/chatdigest/internal/degrade"
	"github.com/flemzord/chatdigest/internal/prompt"
	"github.com/flemzord/chatdigest/internal/provider"
	"github.com/flemzord/chatdigest/internal/quota"
	"github.com/flemzord/chatdigest/internal/render"
	"github.com/flemzord/chatdigest/internal/traits"
	"github.com/flemzord/chatdigest/pkg/message"
)

const tracerName = "github.com/flemzord/chatdigest/internal/reply"

// Defaults applied by Config.
const (
	DefaultLookback    = 3 * time.Hour
	DefaultMaxTokens   = 8000
	DefaultThreadDepth = 10
	DefaultHintBelow   = 2
)

// Contract is the structured-output contract for replies.
var Contract = provider.MustContract("reply", "response",
	provider.ObjectSchema(map[string]*jsonschema.Schema{
		"response": provider.StringSchema("The reply text"),
	}, "response"))

type payload struct {
	Response string `json:"response"`
}

// Config tunes the service.
type Config struct {
	// Triggers are matched case-insensitively anywhere in the text.
	Triggers []string

	Lookback  time.Duration
	MaxTokens int

	// ThreadDepth caps the reply-chain ancestors in the prompt. Nil means
	// DefaultThreadDepth; 0 leaves the thread out.
	ThreadDepth *int

	// HintBelow appends the remaining-quota hint when fewer replies than
	// this are left today. Nil means DefaultHintBelow; 0 never hints.
	HintBelow *int

	Language  string
	BotUserID int64
}

func (c Config) withDefaults() Config {
	if c.Lookback <= 0 {
		c.Lookback = DefaultLookback
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	c.ThreadDepth = atLeastZero(c.ThreadDepth, DefaultThreadDepth)
	c.HintBelow = atLeastZero(c.HintBelow, DefaultHintBelow)
	if c.BotUserID == 0 {
		c.BotUserID = message.BotUserID
	}
	triggers := make([]string, 0, len(c.Triggers))
	for _, t := range c.Triggers {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			triggers = append(triggers, t)
		}
	}
	c.Triggers = triggers
	return c
}

func atLeastZero(p *int, fallback int) *int {
	v := fallback
	if p != nil {
		v = max(*p, 0)
	}
	return &v
}

// Service generates replies. It is safe for concurrent use.
type Service struct {
	log        chatlog.Log
	builder    *ctxengine.Builder
	gateway    *provider.Gateway
	controller *degrade.Controller
	limiter    *quota.Limiter
	augmenter  *traits.Augmenter
	labels     render.Labels
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

// WithAugmenter appends the asker's trait profile to the prompt.
func WithAugmenter(a *traits.Augmenter) Option {
	return func(s *Service) { s.augmenter = a }
}

// NewService wires the reply path.
func NewService(log chatlog.Log, builder *ctxengine.Builder, gateway *provider.Gateway, controller *degrade.Controller, limiter *quota.Limiter, labels render.Labels, cfg Config, opts ...Option) *Service {
	s := &Service{
		log:        log,
		builder:    builder,
		gateway:    gateway,
		controller: controller,
		limiter:    limiter,
		labels:     labels,
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

// BotUserID is the author id used for re-inserted bot replies.
func (s *Service) BotUserID() int64 { return s.cfg.BotUserID }

// ShouldReply reports whether m addresses the bot: it contains a trigger
// phrase or replies to a message the bot posted.
func (s *Service) ShouldReply(ctx context.Context, m message.Message) bool {
	if m.UserID == s.cfg.BotUserID || message.IsBlank(m.Text) {
		return false
	}
	text := strings.ToLower(m.Text)
	for _, t := range s.cfg.Triggers {
		if strings.Contains(text, t) {
			return true
		}
	}
	if !m.IsReply() {
		return false
	}
	parent, err := s.log.Get(ctx, m.ChatID, m.ReplyToID)
	if err != nil {
		if !errors.Is(err, chatlog.ErrNotFound) {
			s.logger.Warn("reply parent lookup failed", "chat_id", m.ChatID, "error", err)
		}
		return false
	}
	return parent.UserID == s.cfg.BotUserID
}

// Generate answers m at the requested intensity. The returned text is
// HTML-safe. The only error is *quota.ExceededError; every other failure
// becomes one of the reply labels.
func (s *Service) Generate(ctx context.Context, m message.Message, intensity int) (string, error) {
	runID := uuid.NewString()
	requested := s.controller.Clamp(intensity)
	logger := s.logger.With("run_id", runID, "chat_id", m.ChatID, "user_id", m.UserID)

	ctx, span := s.tracer.Start(ctx, "reply.generate", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int64("chat", m.ChatID),
		attribute.Int("requested", requested),
	))
	defer span.End()

	count, err := s.limiter.CheckAndIncrement(ctx, m.UserID, m.ChatID, s.limiter.Today(m.Time))
	if err != nil {
		var exceeded *quota.ExceededError
		if errors.As(err, &exceeded) {
			span.SetAttributes(attribute.String("outcome", "quota"))
			logger.Info("reply quota exceeded", "limit", exceeded.Limit)
			return "", exceeded
		}
		span.RecordError(err)
		logger.Error("reply quota check failed", "error", err)
		return s.labels.ReplyFailed, nil
	}

	text, outcome := s.generate(ctx, logger, m, requested)
	span.SetAttributes(attribute.String("outcome", outcome))
	if outcome == degrade.Done.String() {
		if left := s.limiter.Remaining(count); left < *s.cfg.HintBelow {
			text += "\n\n" + fmt.Sprintf(s.labels.QuotaHint, left)
		}
	}
	return text, nil
}

func (s *Service) generate(ctx context.Context, logger *slog.Logger, m message.Message, requested int) (string, string) {
	backend, err := s.gateway.BackendFor(m.ChatID)
	if err != nil {
		logger.Warn("reply skipped, chat has no backend", "error", err)
		return s.labels.ReplyFailed, "unconfigured"
	}
	logger = logger.With("backend", backend.Name())

	thread := s.thread(ctx, logger, m)

	// One prompt per level; the window budget reserves the largest.
	prompts := make([]string, requested+1)
	var overhead int
	for level := requested; level >= 0; level-- {
		instr := prompt.Reply{
			Level:    level,
			Language: s.cfg.Language,
			Asker:    message.CleanText(m.DisplayName()),
			Question: message.CleanText(m.Text),
			Thread:   thread,
		}.Instructions()
		prompts[level] = s.augmenter.Augment(ctx, instr, m.UserID)
		overhead = max(overhead, ctxengine.PromptCost(s.builder.Counter(), prompt.ReplySystem, prompts[level], prompt.ContextHeader))
	}

	from, to := ctxengine.Lookback(m.Time, s.cfg.Lookback)
	window, err := s.builder.Build(ctx, ctxengine.WindowRequest{
		ChatID:    m.ChatID,
		From:      from,
		To:        to,
		ExcludeID: m.ID,
		MaxTokens: s.cfg.MaxTokens,
		Overhead:  overhead,
	})
	if err != nil {
		logger.Error("reply window failed", "error", err)
		return s.labels.ReplyFailed, degrade.Failed.String()
	}
	if window.Empty() && len(thread) == 0 {
		logger.Info("reply has no context", "candidates", window.Candidates)
		return s.labels.ReplyNothing, "empty"
	}

	res := degrade.Run(ctx, s.controller, requested, func(ctx context.Context, level int) (string, error) {
		var out payload
		err := s.gateway.Invoke(ctx, backend, provider.Request{
			System: prompt.ReplySystem,
			Prompt: prompt.WithContext(prompts[level], window.Text),
			ChatID: m.ChatID,
		}, Contract, &out)
		if err == nil && message.IsBlank(out.Response) {
			err = fmt.Errorf("%w: blank response", provider.ErrEmptyResult)
		}
		return out.Response, err
	})

	switch res.Outcome {
	case degrade.Done:
		logger.Info("reply generated", "level", res.Level, "rows", len(window.Messages))
		return html.EscapeString(strings.TrimSpace(res.Payload)), res.Outcome.String()
	case degrade.Exhausted:
		logger.Warn("reply exhausted every intensity level", "requested", requested)
		return s.labels.ReplyExhausted, res.Outcome.String()
	default:
		logger.Error("reply failed", "level", res.Level, "error", res.Err)
		return s.labels.ReplyFailed, res.Outcome.String()
	}
}

// thread walks the reply chain above m, nearest parent first, and returns
// it oldest first.
func (s *Service) thread(ctx context.Context, logger *slog.Logger, m message.Message) []string {
	var lines []string
	seen := map[int64]bool{m.ID: true}
	parent := m.ReplyToID
	for depth := 0; depth < *s.cfg.ThreadDepth && parent != 0 && !seen[parent]; depth++ {
		seen[parent] = true
		pm, err := s.log.Get(ctx, m.ChatID, parent)
		if err != nil {
			if !errors.Is(err, chatlog.ErrNotFound) {
				logger.Warn("reply thread lookup failed", "message_id", parent, "error", err)
			}
			break
		}
		if line, ok := s.builder.FormatLine(pm); ok {
			lines = append(lines, line)
		}
		parent = pm.ReplyToID
	}
	slices.Reverse(lines)
	return lines
}

// Record stores a reply the bot posted so later windows and reply-to-bot
// detection see it.
func (s *Service) Record(ctx context.Context, sent message.Message) error {
	sent.UserID = s.cfg.BotUserID
	if err := s.log.Insert(ctx, sent.Normalize()); err != nil {
		return fmt.Errorf("reply: record bot message: %w", err)
	}
	return nil
}
