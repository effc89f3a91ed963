// Package app wires configuration, storage, backends and the Telegram
// channel into a runnable bot. The chatdigest CLI is a thin layer over it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/flemzord/chatdigest/internal/config"
	ctxengine "github.com/flemzord/chatdigest/internal/context"
	"github.com/flemzord/chatdigest/internal/cron"
	"github.com/flemzord/chatdigest/internal/degrade"
	"github.com/flemzord/chatdigest/internal/digest"
	"github.com/flemzord/chatdigest/internal/gateway"
	"github.com/flemzord/chatdigest/internal/metrics"
	"github.com/flemzord/chatdigest/internal/prompt"
	"github.com/flemzord/chatdigest/internal/provider"
	"github.com/flemzord/chatdigest/internal/quota"
	"github.com/flemzord/chatdigest/internal/render"
	"github.com/flemzord/chatdigest/internal/reply"
	"github.com/flemzord/chatdigest/internal/security"
	"github.com/flemzord/chatdigest/internal/telemetry"
	"github.com/flemzord/chatdigest/internal/traits"
	"github.com/flemzord/chatdigest/modules/channel/telegram"
	"github.com/flemzord/chatdigest/modules/provider/gemini"
	"github.com/flemzord/chatdigest/modules/provider/openai"
	"github.com/flemzord/chatdigest/modules/store"
)

// Params configures Load and Build.
type Params struct {
	// ConfigPath is an explicit config file. Empty searches the standard
	// locations.
	ConfigPath string

	// Version is reported by /status and the trace resource.
	Version string

	// LogOutput receives the logs. Defaults to os.Stderr.
	LogOutput io.Writer

	// BotFactory replaces the Telegram connection, mainly for tests.
	BotFactory telegram.BotFactory
}

// Load resolves, reads and validates the configuration. A .env file next
// to the config or in the working directory is loaded first.
func Load(params Params) (*config.Config, string, error) {
	path, err := config.Resolve(params.ConfigPath)
	if err != nil {
		return nil, "", err
	}
	if err := config.LoadDotEnv(path); err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// NewLogger builds the redacting root logger for cfg.
func NewLogger(cfg *config.Config, w io.Writer) (*slog.Logger, *security.Redactor) {
	if w == nil {
		w = os.Stderr
	}
	redactor := security.NewRedactor()
	redactor.AddLiteral(cfg.Secrets()...)
	return security.NewLogger(w, cfg.Log, redactor), redactor
}

// Bot holds every wired component.
type Bot struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     store.Store
	Gateway   *provider.Gateway
	Metrics   *metrics.Recorder
	Digests   *digest.Service
	Replies   *reply.Service    // nil when replies are disabled
	Refresher *traits.Refresher // nil when traits are disabled
	Telegram  *telegram.Channel
	Scheduler *cron.Scheduler
	Ops       *gateway.Server // nil when ops.bind is empty

	version         string
	redactor        *security.Redactor
	registry        *prometheus.Registry
	shutdownTracing telemetry.ShutdownFunc
}

// Build opens the store and wires every component. Nothing starts
// polling or listening; Close releases what Build opened.
func Build(ctx context.Context, cfg *config.Config, params Params) (_ *Bot, err error) {
	logger, redactor := NewLogger(cfg, params.LogOutput)
	loc := cfg.Location()

	b := &Bot{
		Config:   cfg,
		Logger:   logger,
		version:  params.Version,
		redactor: redactor,
		registry: prometheus.NewRegistry(),
	}
	defer func() {
		if err != nil {
			_ = b.Close(context.Background())
		}
	}()

	b.shutdownTracing, err = telemetry.Setup(ctx, cfg.Telemetry, params.Version)
	if err != nil {
		return nil, err
	}

	b.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	b.Metrics = metrics.New(b.registry)

	b.Store, err = store.Open(ctx, cfg.Storage, logger.With("component", "store"))
	if err != nil {
		return nil, err
	}

	b.Gateway, err = newGateway(ctx, cfg, logger, b.Metrics)
	if err != nil {
		return nil, err
	}

	counter := ctxengine.NewCounter(cfg.Context.Encoding, logger)
	builder := ctxengine.NewBuilder(b.Store, counter, ctxengine.WindowConfig{
		MaxCandidates: cfg.Context.MaxCandidates,
		MaxLineChars:  cfg.Context.MaxLineChars,
		Location:      loc,
	})
	labels := render.LabelsFor(cfg.Digest.Locale)

	b.Digests = digest.NewService(builder, b.Gateway,
		degrade.NewController("digest", prompt.MaxIntensity, degrade.WithLogger(logger), degrade.WithHook(b.Metrics)),
		render.NewRenderer(labels, cfg.Digest.MaxTopics),
		digest.Config{
			MaxTokens: cfg.Context.MaxTokens,
			MaxTopics: cfg.Digest.MaxTopics,
			Language:  cfg.Digest.Language,
			Location:  loc,
		},
		digest.WithLogger(logger.With("component", "digest")),
	)

	var augmenter *traits.Augmenter
	if cfg.Traits.IsEnabled() {
		backend, err := b.Gateway.Backend(cfg.Traits.Backend)
		if err != nil {
			return nil, err
		}
		b.Refresher = traits.NewRefresher(b.Store, b.Gateway, backend, b.Store.Profiles(), counter,
			traits.RefresherConfig{
				SampleSize:  cfg.Traits.SampleSize,
				Concurrency: cfg.Traits.Concurrency,
				MaxTokens:   cfg.Context.MaxTokens,
				Location:    loc,
			},
			traits.WithLogger(logger.With("component", "traits")),
		)
		augmenter = traits.NewAugmenter(b.Store.Profiles(), logger.With("component", "traits"))
	}

	if cfg.Reply.IsEnabled() {
		limiter := quota.NewLimiter(b.Store, cfg.Reply.Limit(),
			quota.WithLogger(logger.With("component", "quota")),
			quota.WithLocation(loc),
			quota.WithMessage(labels.QuotaExceeded),
		)
		opts := []reply.Option{reply.WithLogger(logger.With("component", "reply"))}
		if augmenter != nil {
			opts = append(opts, reply.WithAugmenter(augmenter))
		}
		b.Replies = reply.NewService(b.Store, builder, b.Gateway,
			degrade.NewController("reply", prompt.MaxIntensity, degrade.WithLogger(logger), degrade.WithHook(b.Metrics)),
			limiter, labels,
			reply.Config{
				Triggers:    cfg.Reply.Triggers,
				Lookback:    cfg.Reply.Lookback,
				MaxTokens:   cfg.Reply.MaxTokens,
				ThreadDepth: cfg.Reply.ThreadDepth,
				HintBelow:   cfg.Reply.HintBelow,
				Language:    cfg.Digest.Language,
				BotUserID:   cfg.BotUserID,
			},
			opts...,
		)
	}

	deps := telegram.Deps{
		Log:             b.Store,
		Chats:           b.Store,
		Digests:         b.Digests,
		ReplyChat:       cfg.ReplyChat,
		Labels:          labels,
		Location:        loc,
		DigestIntensity: cfg.Digest.Level(),
		ReplyIntensity:  cfg.Reply.Level(),
		Observer:        b.Metrics,
	}
	if b.Replies != nil {
		deps.Replies = b.Replies
	}
	tgOpts := []telegram.Option{telegram.WithLogger(logger)}
	if params.BotFactory != nil {
		tgOpts = append(tgOpts, telegram.WithBotFactory(params.BotFactory))
	}
	b.Telegram = telegram.New(cfg.Telegram, deps, tgOpts...)

	b.Scheduler, err = b.newScheduler(loc)
	if err != nil {
		return nil, err
	}

	if cfg.Ops.Enabled() {
		b.Ops = gateway.NewServer(cfg.Ops,
			gateway.WithLogger(logger.With("component", "ops")),
			gateway.WithStore(b.Store),
			gateway.WithGatherer(b.registry),
			gateway.WithReporter(b.report),
		)
	}
	return b, nil
}

func newGateway(ctx context.Context, cfg *config.Config, logger *slog.Logger, rec *metrics.Recorder) (*provider.Gateway, error) {
	gw := provider.NewGateway(
		provider.WithLogger(logger.With("component", "provider")),
		provider.WithObserver(rec),
	)
	if c := cfg.Providers.OpenAI; c != nil {
		gw.Register(openai.New(*c, openai.WithLogger(logger.With("backend", openai.Name))))
	}
	if c := cfg.Providers.Gemini; c != nil {
		backend, err := gemini.New(ctx, *c, gemini.WithLogger(logger.With("backend", gemini.Name)))
		if err != nil {
			return nil, err
		}
		gw.Register(backend)
	}
	for chatID, name := range cfg.Routes() {
		if err := gw.Route(chatID, name); err != nil {
			return nil, err
		}
	}
	return gw, nil
}

func (b *Bot) newScheduler(loc *time.Location) (*cron.Scheduler, error) {
	cfg := b.Config
	s := cron.NewScheduler(b.Logger.With("component", "cron"),
		cron.WithLocation(loc),
		cron.WithObserver(b.Metrics),
	)
	err := s.RegisterJob(&cron.DigestJob{
		Chats:        b.Store,
		Digests:      b.Digests,
		Poster:       b.Telegram,
		Allowed:      cfg.Allowed,
		Routed:       b.Gateway.Routed,
		Logger:       b.Logger,
		Location:     loc,
		Window:       cfg.Digest.Window,
		Intensity:    cfg.Digest.Level(),
		ScheduleExpr: cfg.Digest.Schedule,
	})
	if err != nil {
		return nil, err
	}
	if b.Refresher != nil {
		err := s.RegisterJob(&cron.TraitsJob{
			Refresher:    b.Refresher,
			ActiveWithin: cfg.Traits.ActiveWithin,
			Logger:       b.Logger,
			ScheduleExpr: cfg.Traits.Schedule,
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// report fills GET /status.
func (b *Bot) report(ctx context.Context) gateway.Report {
	summary := b.Config.Summary()
	b.redactor.RedactMap(summary)

	enabled := 0
	if chats, err := b.Store.ListEnabled(ctx); err == nil {
		enabled = len(chats)
	} else {
		b.Logger.Warn("status: list enabled chats", "error", err)
	}
	return gateway.Report{
		Version:      b.version,
		Backends:     b.Gateway.Backends(),
		RoutedChats:  len(b.Config.Routes()),
		AllowedChats: len(b.Config.Telegram.AllowedChats),
		EnabledChats: enabled,
		Jobs:         b.Scheduler.Jobs(),
		Config:       summary,
	}
}

// Close flushes traces and closes the store.
func (b *Bot) Close(ctx context.Context) error {
	var errs []error
	if b.shutdownTracing != nil {
		if err := b.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("app: shutdown tracing: %w", err))
		}
	}
	if b.Store != nil {
		if err := b.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("app: close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
