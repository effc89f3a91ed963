package telegram

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot is the subset of *tgbotapi.BotAPI the channel uses.
type Bot interface {
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Self() tgbotapi.User
}

// BotFactory connects a Bot from the channel configuration.
type BotFactory func(cfg Config) (Bot, error)

type apiBot struct {
	api *tgbotapi.BotAPI
}

func (b apiBot) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.api.GetUpdatesChan(cfg)
}

func (b apiBot) StopReceivingUpdates() { b.api.StopReceivingUpdates() }

func (b apiBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) { return b.api.Send(c) }

func (b apiBot) Self() tgbotapi.User { return b.api.Self }

// NewBot is the default BotFactory. It calls getMe to verify the token.
func NewBot(cfg Config) (Bot, error) {
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = DefaultAPIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.Token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	api.Debug = cfg.Debug
	return apiBot{api}, nil
}

// botLogger routes the library's log output through slog. The library
// prints request errors that may include the token-bearing URL, so the
// logger passed here should be the redacting one.
type botLogger struct {
	logger *slog.Logger
}

func (l botLogger) Println(v ...any) {
	l.logger.Warn("telegram api", "detail", strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l botLogger) Printf(format string, v ...any) {
	l.logger.Warn("telegram api", "detail", fmt.Sprintf(format, v...))
}
