package config

import (
	"strings"
	"testing"

	"github.com/flemzord/chatdigest/modules/provider/gemini"
	"github.com/flemzord/chatdigest/modules/provider/openai"
)

const validYAML = `
version: "1"
timezone: UTC
telegram:
  token: "123456:abcdefghijklmnopqrstuvwxyz0123456789"
  allowed_chats: [-100111, -100222]
providers:
  openai:
    api_key: sk-test
    chats: [-100111]
  gemini:
    api_key: AIza-test
    chats: [-100222]
reply:
  triggers: ["пан бот"]
`

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	t.Parallel()
	if err := Validate(validConfig(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unsupported version", func(c *Config) { c.Version = "99" }, "unsupported version"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, `timezone "Mars/Olympus"`},
		{"no providers", func(c *Config) { c.Providers = ProvidersConfig{} }, "at least one of openai or gemini"},
		{"openai without key", func(c *Config) { c.Providers.OpenAI.APIKey = "" }, "openai: api_key is required"},
		{"chat on two backends", func(c *Config) {
			c.Providers.Gemini.Chats = append(c.Providers.Gemini.Chats, -100111)
		}, "chat -100111 is routed to both openai and gemini"},
		{"route outside allowed chats", func(c *Config) {
			c.Providers.OpenAI.Chats = append(c.Providers.OpenAI.Chats, -100999)
		}, "chat -100999 is not in telegram.allowed_chats"},
		{"reply chat outside allowed chats", func(c *Config) { c.Reply.Chats = []int64{-100999} }, "reply.chats: chat -100999"},
		{"unknown traits backend", func(c *Config) { c.Traits.Backend = "claude" }, `traits.backend "claude"`},
		{"traits backend not configured", func(c *Config) {
			c.Providers.Gemini = nil
			c.Traits.Backend = BackendGemini
		}, `traits.backend "gemini"`},
		{"intensity out of range", func(c *Config) { c.Digest.Intensity = ptr(12) }, "digest: intensity: must be no greater than 9"},
		{"bad schedule", func(c *Config) { c.Digest.Schedule = "every day" }, "schedule: invalid cron expression"},
		{"unknown window", func(c *Config) { c.Digest.Window = "last_week" }, "window: must be a valid value"},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = DriverPostgres }, "storage: dsn: cannot be blank"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mysql" }, "driver: must be a valid value"},
		{"reply without triggers", func(c *Config) { c.Reply.Triggers = nil }, "triggers: cannot be blank"},
		{"bad token", func(c *Config) { c.Telegram.Token = "not-a-token" }, "token format invalid"},
		{"no allowed chats", func(c *Config) {
			c.Telegram.AllowedChats = nil
			c.Providers.OpenAI.Chats = nil
			c.Providers.Gemini.Chats = nil
		}, "allowed_chats must list at least one chat"},
		{"unknown encoding", func(c *Config) { c.Context.Encoding = "gpt2" }, "encoding: must be a valid value"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log: format: must be a valid value"},
		{"negative thread depth", func(c *Config) { c.Reply.ThreadDepth = ptr(-1) }, "thread_depth: must be no less than 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v\nwant it to contain %q", err, tt.want)
			}
		})
	}
}

func TestValidate_NonPositiveDailyLimit(t *testing.T) {
	t.Parallel()
	for _, limit := range []int{0, -1} {
		cfg := validConfig(t)
		cfg.Reply.DailyLimit = ptr(limit)
		if err := Validate(cfg); err != nil {
			t.Errorf("daily_limit %d: unexpected error: %v", limit, err)
		}
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := validConfig(t)
	cfg.Version = "2"
	cfg.Storage.Driver = "mysql"
	cfg.Traits.Backend = "claude"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"version", "driver", "traits.backend"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error is missing %q: %v", want, err)
		}
	}
}

func TestValidate_DisabledFeaturesSkipChecks(t *testing.T) {
	t.Parallel()

	cfg := validConfig(t)
	cfg.Reply.Enabled = ptr(false)
	cfg.Reply.Triggers = nil
	cfg.Traits.Enabled = ptr(false)
	cfg.Traits.Backend = "claude"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfig_Routing(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Providers: ProvidersConfig{
			OpenAI: &openai.Config{APIKey: "sk-a", Chats: []int64{1, 2}},
			Gemini: &gemini.Config{APIKey: "AIza-b", Chats: []int64{3}},
		},
	}
	cfg.Telegram.AllowedChats = []int64{1, 2, 3}
	cfg.Telegram.Token = "42:tok"
	cfg.Reply.Chats = []int64{2}
	cfg.Defaults()

	routes := cfg.Routes()
	want := map[int64]string{1: BackendOpenAI, 2: BackendOpenAI, 3: BackendGemini}
	if len(routes) != len(want) {
		t.Fatalf("Routes() = %v", routes)
	}
	for id, backend := range want {
		if routes[id] != backend {
			t.Errorf("Routes()[%d] = %q, want %q", id, routes[id], backend)
		}
	}

	if cfg.Traits.Backend != BackendOpenAI {
		t.Errorf("traits backend default = %q, want openai", cfg.Traits.Backend)
	}
	if !cfg.ReplyChat(2) || cfg.ReplyChat(1) || cfg.ReplyChat(99) {
		t.Error("ReplyChat does not honour reply.chats")
	}
	cfg.Reply.Chats = nil
	if !cfg.ReplyChat(1) || cfg.ReplyChat(99) {
		t.Error("empty reply.chats should mean every allowed chat")
	}

	secrets := cfg.Secrets()
	if len(secrets) != 3 {
		t.Errorf("Secrets() = %v, want token and two api keys", secrets)
	}
}
