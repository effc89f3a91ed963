package config

import (
	"slices"
	"time"

	"github.com/flemzord/chatdigest/pkg/message"
)

// Defaults fills zero-valued fields. Load calls it; callers building a
// Config by hand should too.
func (c *Config) Defaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.BotUserID == 0 {
		c.BotUserID = message.BotUserID
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	c.Telegram.Defaults()
	if c.Providers.OpenAI != nil {
		c.Providers.OpenAI.Defaults()
	}
	if c.Providers.Gemini != nil {
		c.Providers.Gemini.Defaults()
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverSQLite
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.Path == "" {
		c.Storage.Path = "./data/chatdigest.db"
	}

	if c.Context.MaxTokens == 0 {
		c.Context.MaxTokens = 30000
	}
	if c.Context.Encoding == "" {
		c.Context.Encoding = "cl100k_base"
	}
	if c.Context.MaxCandidates == 0 {
		c.Context.MaxCandidates = 5000
	}
	if c.Context.MaxLineChars == 0 {
		c.Context.MaxLineChars = 500
	}

	d := &c.Digest
	if d.Schedule == "" {
		d.Schedule = "59 23 * * *"
	}
	if d.Window == "" {
		d.Window = WindowToday
	}
	if d.Intensity == nil {
		d.Intensity = ptr(9)
	}
	if d.MaxTopics == 0 {
		d.MaxTopics = 7
	}
	if d.Locale == "" {
		d.Locale = "en"
	}

	r := &c.Reply
	if r.Lookback == 0 {
		r.Lookback = 3 * time.Hour
	}
	if r.Intensity == nil {
		r.Intensity = ptr(9)
	}
	if r.DailyLimit == nil {
		r.DailyLimit = ptr(10)
	}
	if r.MaxTokens == 0 {
		r.MaxTokens = 8000
	}
	if r.ThreadDepth == nil {
		r.ThreadDepth = ptr(10)
	}
	if r.HintBelow == nil {
		r.HintBelow = ptr(2)
	}

	t := &c.Traits
	if t.Backend == "" {
		t.Backend = c.firstBackend()
	}
	if t.Schedule == "" {
		t.Schedule = "0 4 * * *"
	}
	if t.SampleSize == 0 {
		t.SampleSize = 500
	}
	if t.Concurrency == 0 {
		t.Concurrency = 5
	}
	if t.ActiveWithin == 0 {
		t.ActiveWithin = 30 * 24 * time.Hour
	}

	c.Ops.Defaults()
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "chatdigest"
	}
}

// Location returns the configured zone, or UTC when it does not load.
// Validate reports a bad zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Backends lists the configured provider names.
func (c *Config) Backends() []string {
	var names []string
	if c.Providers.OpenAI != nil {
		names = append(names, BackendOpenAI)
	}
	if c.Providers.Gemini != nil {
		names = append(names, BackendGemini)
	}
	return names
}

func (c *Config) firstBackend() string {
	if names := c.Backends(); len(names) > 0 {
		return names[0]
	}
	return ""
}

// Routes maps each routed chat to its backend name.
func (c *Config) Routes() map[int64]string {
	routes := make(map[int64]string)
	if p := c.Providers.OpenAI; p != nil {
		for _, id := range p.Chats {
			routes[id] = BackendOpenAI
		}
	}
	if p := c.Providers.Gemini; p != nil {
		for _, id := range p.Chats {
			routes[id] = BackendGemini
		}
	}
	return routes
}

// Allowed reports whether chatID is listed in telegram.allowed_chats.
func (c *Config) Allowed(chatID int64) bool {
	return slices.Contains(c.Telegram.AllowedChats, chatID)
}

// ReplyChat reports whether trigger replies are active in chatID.
func (c *Config) ReplyChat(chatID int64) bool {
	if !c.Reply.IsEnabled() || !c.Allowed(chatID) {
		return false
	}
	return len(c.Reply.Chats) == 0 || slices.Contains(c.Reply.Chats, chatID)
}

// Secrets returns the configured credential values for log redaction.
func (c *Config) Secrets() []string {
	secrets := []string{c.Telegram.Token, c.Storage.DSN, c.Ops.BearerToken}
	if p := c.Providers.OpenAI; p != nil {
		secrets = append(secrets, p.APIKey)
	}
	if p := c.Providers.Gemini; p != nil {
		secrets = append(secrets, p.APIKey)
	}
	return slices.DeleteFunc(secrets, func(s string) bool { return s == "" })
}

// Summary is the non-secret view of the config reported by /status.
func (c *Config) Summary() map[string]any {
	return map[string]any{
		"timezone":         c.Timezone,
		"storage_driver":   c.Storage.Driver,
		"storage_dsn":      c.Storage.DSN,
		"token_encoding":   c.Context.Encoding,
		"digest_schedule":  c.Digest.Schedule,
		"digest_window":    c.Digest.Window,
		"digest_intensity": c.Digest.Level(),
		"reply_enabled":    c.Reply.IsEnabled(),
		"reply_intensity":  c.Reply.Level(),
		"reply_limit":      c.Reply.Limit(),
		"traits_enabled":   c.Traits.IsEnabled(),
		"traits_backend":   c.Traits.Backend,
		"tracing":          c.Telemetry.Enabled(),
	}
}

func ptr[T any](v T) *T { return &v }
