package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	robfigcron "github.com/robfig/cron/v3"

	"github.com/flemzord/chatdigest/internal/cron"
	"github.com/flemzord/chatdigest/modules/provider/gemini"
	"github.com/flemzord/chatdigest/modules/provider/openai"
	"github.com/flemzord/chatdigest/modules/store"
)

// Storage drivers.
const (
	DriverSQLite   = store.DriverSQLite
	DriverPostgres = store.DriverPostgres
)

// Digest windows.
const (
	WindowToday       = cron.WindowToday
	WindowPreviousDay = cron.WindowPreviousDay
)

// Backend names, as registered with the provider gateway.
const (
	BackendOpenAI = openai.Name
	BackendGemini = gemini.Name
)

var encodings = []any{"cl100k_base", "o200k_base", "p50k_base", "r50k_base"}

var intensityRules = []validation.Rule{validation.NotNil, validation.Min(0), validation.Max(9)}

func init() {
	// Field names in validation errors follow the YAML keys.
	validation.ErrorTag = "yaml"
}

// Validate checks a defaulted Config and returns every problem found,
// joined.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("config: timezone %q: %w", cfg.Timezone, err))
	}

	errs = append(errs, section("log", validation.ValidateStruct(&cfg.Log,
		validation.Field(&cfg.Log.Level, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&cfg.Log.Format, validation.In("text", "json")),
	)))
	errs = append(errs, section("telegram", cfg.Telegram.Validate()))
	errs = append(errs, validateProviders(cfg)...)
	errs = append(errs, section("storage", validateStorage(&cfg.Storage)))
	errs = append(errs, section("context", validation.ValidateStruct(&cfg.Context,
		validation.Field(&cfg.Context.MaxTokens, validation.Min(1000)),
		validation.Field(&cfg.Context.Encoding, validation.In(encodings...)),
		validation.Field(&cfg.Context.MaxCandidates, validation.Min(1)),
		validation.Field(&cfg.Context.MaxLineChars, validation.Min(20)),
	)))
	errs = append(errs, section("digest", validation.ValidateStruct(&cfg.Digest,
		validation.Field(&cfg.Digest.Schedule, validation.Required, validation.By(cronSpec)),
		validation.Field(&cfg.Digest.Window, validation.In(WindowToday, WindowPreviousDay)),
		validation.Field(&cfg.Digest.Intensity, intensityRules...),
		validation.Field(&cfg.Digest.MaxTopics, validation.Min(1), validation.Max(20)),
	)))
	errs = append(errs, section("reply", validation.ValidateStruct(&cfg.Reply,
		validation.Field(&cfg.Reply.Triggers, validation.When(cfg.Reply.IsEnabled(), validation.Required)),
		validation.Field(&cfg.Reply.Lookback, validation.Min(time.Minute)),
		validation.Field(&cfg.Reply.Intensity, intensityRules...),
		validation.Field(&cfg.Reply.MaxTokens, validation.Min(500)),
		validation.Field(&cfg.Reply.ThreadDepth, validation.Min(0), validation.Max(50)),
		validation.Field(&cfg.Reply.HintBelow, validation.Min(0)),
	)))
	errs = append(errs, section("traits", validation.ValidateStruct(&cfg.Traits,
		validation.Field(&cfg.Traits.Schedule, validation.When(cfg.Traits.IsEnabled(), validation.Required, validation.By(cronSpec))),
		validation.Field(&cfg.Traits.SampleSize, validation.Min(1)),
		validation.Field(&cfg.Traits.Concurrency, validation.Min(1), validation.Max(32)),
		validation.Field(&cfg.Traits.ActiveWithin, validation.Min(time.Hour)),
	)))
	errs = append(errs, section("telemetry", validation.ValidateStruct(&cfg.Telemetry,
		validation.Field(&cfg.Telemetry.SampleRate, validation.Min(0.0), validation.Max(1.0)),
	)))

	errs = append(errs, crossChecks(cfg)...)
	return errors.Join(errs...)
}

func section(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("config: %s: %w", name, err)
}

func validateProviders(cfg *Config) []error {
	if len(cfg.Backends()) == 0 {
		return []error{errors.New("config: providers: at least one of openai or gemini must be configured")}
	}
	var errs []error
	if p := cfg.Providers.OpenAI; p != nil {
		errs = append(errs, section("providers", p.Validate()))
	}
	if p := cfg.Providers.Gemini; p != nil {
		errs = append(errs, section("providers", p.Validate()))
	}
	return errs
}

func validateStorage(s *store.Config) error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Driver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
		validation.Field(&s.Path, validation.When(s.Driver == DriverSQLite, validation.Required)),
		validation.Field(&s.DSN, validation.When(s.Driver == DriverPostgres, validation.Required)),
	)
}

// crossChecks covers constraints spanning sections.
func crossChecks(cfg *Config) []error {
	var errs []error

	owner := make(map[int64]string)
	claim := func(backend string, chats []int64) {
		for _, id := range chats {
			if prev, ok := owner[id]; ok && prev != backend {
				errs = append(errs, fmt.Errorf("config: chat %d is routed to both %s and %s", id, prev, backend))
				continue
			}
			owner[id] = backend
			if !cfg.Allowed(id) {
				errs = append(errs, fmt.Errorf("config: providers.%s: chat %d is not in telegram.allowed_chats", backend, id))
			}
		}
	}
	if p := cfg.Providers.OpenAI; p != nil {
		claim(BackendOpenAI, p.Chats)
	}
	if p := cfg.Providers.Gemini; p != nil {
		claim(BackendGemini, p.Chats)
	}

	for _, id := range cfg.Reply.Chats {
		if !cfg.Allowed(id) {
			errs = append(errs, fmt.Errorf("config: reply.chats: chat %d is not in telegram.allowed_chats", id))
		}
	}

	if cfg.Traits.IsEnabled() && !slices.Contains(cfg.Backends(), cfg.Traits.Backend) {
		errs = append(errs, fmt.Errorf("config: traits.backend %q is not a configured provider", cfg.Traits.Backend))
	}
	return errs
}

func cronSpec(value any) error {
	spec, _ := value.(string)
	if spec == "" {
		return nil
	}
	if _, err := robfigcron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}
