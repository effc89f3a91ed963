// Package config handles YAML configuration loading, environment variable
// expansion, defaults, and validation for chatdigest.
package config

import (
	"time"

	"github.com/flemzord/chatdigest/internal/gateway"
	"github.com/flemzord/chatdigest/internal/security"
	"github.com/flemzord/chatdigest/internal/telemetry"
	"github.com/flemzord/chatdigest/modules/channel/telegram"
	"github.com/flemzord/chatdigest/modules/provider/gemini"
	"github.com/flemzord/chatdigest/modules/provider/openai"
	"github.com/flemzord/chatdigest/modules/store"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Timezone is the IANA zone for the digest day, the quota day and the
	// cron schedules.
	Timezone string `yaml:"timezone"`

	// BotUserID is the author id stored for the bot's own replies.
	BotUserID int64 `yaml:"bot_user_id"`

	Log       security.LogConfig `yaml:"log"`
	Telegram  telegram.Config    `yaml:"telegram"`
	Providers ProvidersConfig    `yaml:"providers"`
	Storage   store.Config       `yaml:"storage"`
	Context   ContextConfig      `yaml:"context"`
	Digest    DigestConfig       `yaml:"digest"`
	Reply     ReplyConfig        `yaml:"reply"`
	Traits    TraitsConfig       `yaml:"traits"`
	Ops       gateway.Config     `yaml:"ops"`
	Telemetry telemetry.Config   `yaml:"telemetry"`
}

// ProvidersConfig holds the backend sections. A nil section is not
// configured.
type ProvidersConfig struct {
	OpenAI *openai.Config `yaml:"openai,omitempty"`
	Gemini *gemini.Config `yaml:"gemini,omitempty"`
}

// ContextConfig tunes token counting and the window builder.
type ContextConfig struct {
	MaxTokens     int    `yaml:"max_tokens"`
	Encoding      string `yaml:"encoding"`
	MaxCandidates int    `yaml:"max_candidates"`
	MaxLineChars  int    `yaml:"max_line_chars"`
}

// DigestConfig drives the daily digest.
type DigestConfig struct {
	Schedule string `yaml:"schedule"`

	// Window is "today" or "previous_day".
	Window string `yaml:"window"`

	Intensity *int   `yaml:"intensity"`
	MaxTopics int    `yaml:"max_topics"`
	Language  string `yaml:"language"`
	Locale    string `yaml:"locale"`
}

// Level returns the configured intensity. Call after Defaults.
func (d DigestConfig) Level() int { return deref(d.Intensity, 9) }

// ReplyConfig drives trigger replies.
type ReplyConfig struct {
	Enabled *bool `yaml:"enabled"`

	// Chats restricts replies to these chats. Empty means every allowed chat.
	Chats []int64 `yaml:"chats"`

	Triggers  []string      `yaml:"triggers"`
	Lookback  time.Duration `yaml:"lookback"`
	Intensity *int          `yaml:"intensity"`
	MaxTokens int           `yaml:"max_tokens"`

	// DailyLimit of 0 or less rejects every reply.
	DailyLimit  *int `yaml:"daily_limit"`
	ThreadDepth *int `yaml:"thread_depth"`
	HintBelow   *int `yaml:"hint_below"`
}

// IsEnabled reports whether replies are on. Absent means on.
func (r ReplyConfig) IsEnabled() bool { return deref(r.Enabled, true) }

// Level returns the configured intensity. Call after Defaults.
func (r ReplyConfig) Level() int { return deref(r.Intensity, 9) }

// Limit returns the per-user daily reply limit.
func (r ReplyConfig) Limit() int { return deref(r.DailyLimit, 10) }

// Depth returns how many reply-chain ancestors go into the prompt.
func (r ReplyConfig) Depth() int { return deref(r.ThreadDepth, 10) }

// Hint returns the remaining-quota threshold for the hint.
func (r ReplyConfig) Hint() int { return deref(r.HintBelow, 2) }

// TraitsConfig drives the profile refresh.
type TraitsConfig struct {
	Enabled *bool `yaml:"enabled"`

	// Backend names the provider section used for profile extraction.
	Backend string `yaml:"backend"`

	Schedule     string        `yaml:"schedule"`
	SampleSize   int           `yaml:"sample_size"`
	Concurrency  int           `yaml:"concurrency"`
	ActiveWithin time.Duration `yaml:"active_within"`
}

// IsEnabled reports whether profiles are refreshed and used. Absent means on.
func (t TraitsConfig) IsEnabled() bool { return deref(t.Enabled, true) }

func deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
