package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	_ "time/tzdata"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/flemzord/chatdigest/internal/config"
	"github.com/flemzord/chatdigest/internal/security"
	"github.com/flemzord/chatdigest/modules/channel/telegram"
)

const (
	routedChat   int64 = -100111
	unroutedChat int64 = -100333
)

const testYAML = `
version: "1"
timezone: Europe/Kyiv
telegram:
  token: "123456:abcdefghijklmnopqrstuvwxyz0123456789"
  allowed_chats: [-100111, -100333]
providers:
  openai:
    api_key: sk-test-0123456789abcdef
    chats: [-100111]
storage:
  driver: sqlite
  path: %q
reply:
  triggers: ["bot"]
`

type nopBot struct{}

func (nopBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}
func (nopBot) StopReceivingUpdates() {}
func (nopBot) Send(tgbotapi.Chattable) (tgbotapi.Message, error) {
	return tgbotapi.Message{}, errors.New("offline")
}
func (nopBot) Self() tgbotapi.User { return tgbotapi.User{ID: 1, UserName: "test_bot"} }

func newTestBot(t *testing.T, logs *bytes.Buffer) *Bot {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "chatdigest.db")
	cfg, err := config.Parse([]byte(fmt.Sprintf(testYAML, path)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	b, err := Build(context.Background(), cfg, Params{
		Version:    "test",
		LogOutput:  logs,
		BotFactory: func(telegram.Config) (telegram.Bot, error) { return nopBot{}, nil },
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return b
}

func TestBuild(t *testing.T) {
	t.Parallel()
	b := newTestBot(t, &bytes.Buffer{})

	if b.Replies == nil || b.Refresher == nil {
		t.Error("replies and traits should be wired by default")
	}
	if b.Ops != nil {
		t.Error("ops server should be off without ops.bind")
	}
	if got := b.Gateway.Backends(); !slices.Equal(got, []string{"openai"}) {
		t.Errorf("Backends() = %v", got)
	}
	if !b.Gateway.Routed(routedChat) || b.Gateway.Routed(unroutedChat) {
		t.Error("routes do not follow providers.openai.chats")
	}
	if got := b.Scheduler.Jobs(); !slices.Equal(got, []string{"daily_digest", "traits_refresh"}) {
		t.Errorf("Jobs() = %v", got)
	}
	if got := b.App().Names(); !slices.Equal(got, []string{"telegram", "scheduler"}) {
		t.Errorf("App().Names() = %v", got)
	}
	if err := b.App().Validate(); err != nil {
		t.Errorf("App().Validate() = %v", err)
	}
}

func TestEnableRoutedChats(t *testing.T) {
	t.Parallel()
	b := newTestBot(t, &bytes.Buffer{})
	ctx := context.Background()

	if err := b.EnableRoutedChats(ctx); err != nil {
		t.Fatalf("EnableRoutedChats: %v", err)
	}
	chats, err := b.Store.ListEnabled(ctx)
	if err != nil {
		t.Fatalf("ListEnabled: %v", err)
	}
	if len(chats) != 1 || chats[0].ID != routedChat {
		t.Errorf("enabled chats = %+v, want only the routed one", chats)
	}

	report := b.report(ctx)
	if report.EnabledChats != 1 || report.RoutedChats != 1 || report.AllowedChats != 2 {
		t.Errorf("report = %+v", report)
	}
	if report.Config["timezone"] != "Europe/Kyiv" {
		t.Errorf("report config = %v", report.Config)
	}
}

func TestDigestOneOff(t *testing.T) {
	t.Parallel()
	b := newTestBot(t, &bytes.Buffer{})
	ctx := context.Background()

	if _, err := b.Digest(ctx, DigestRequest{ChatID: routedChat, Intensity: 9}); !errors.Is(err, ErrNoDigest) {
		t.Errorf("Digest(empty log) error = %v, want ErrNoDigest", err)
	}
	if _, err := b.Digest(ctx, DigestRequest{ChatID: -42}); err == nil {
		t.Error("Digest() should refuse a chat outside allowed_chats")
	}
}

func TestRefreshTraitsWithoutUsers(t *testing.T) {
	t.Parallel()
	b := newTestBot(t, &bytes.Buffer{})

	n, err := b.RefreshTraits(context.Background(), 0)
	if err != nil || n != 0 {
		t.Errorf("RefreshTraits() = %d, %v; want 0, nil", n, err)
	}
}

func TestLoggerRedactsSecrets(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	b := newTestBot(t, &logs)

	b.Logger.Info("calling backend", "key", "sk-test-0123456789abcdef")
	if strings.Contains(logs.String(), "sk-test-0123456789abcdef") {
		t.Errorf("secret leaked into logs: %s", logs.String())
	}
	if !strings.Contains(logs.String(), security.RedactPlaceholder) {
		t.Errorf("logs lack the redaction placeholder: %s", logs.String())
	}
}
