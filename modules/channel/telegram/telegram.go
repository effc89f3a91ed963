package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/flemzord/chatdigest/internal/chatlog"
	"github.com/flemzord/chatdigest/internal/core"
	"github.com/flemzord/chatdigest/internal/cron"
	"github.com/flemzord/chatdigest/internal/render"
	"github.com/flemzord/chatdigest/pkg/message"
)

// Compile-time interface guards.
var (
	_ core.Validator = (*Channel)(nil)
	_ core.Starter   = (*Channel)(nil)
	_ core.Stopper   = (*Channel)(nil)
	_ cron.Poster    = (*Channel)(nil)
)

// Replier is the subset of reply.Service the channel drives.
type Replier interface {
	ShouldReply(ctx context.Context, m message.Message) bool
	Generate(ctx context.Context, m message.Message, intensity int) (string, error)
	Record(ctx context.Context, sent message.Message) error
}

// Observer receives ingestion counters. metrics.Recorder implements it.
type Observer interface {
	MessageIngested()
	QuotaRejected()
}

// Deps are the collaborators of a Channel.
type Deps struct {
	Log     chatlog.Log
	Chats   chatlog.Chats
	Digests cron.Digester

	// Replies is nil when trigger replies are off.
	Replies Replier

	// ReplyChat reports whether replies are active in a chat. Nil means
	// every allowed chat.
	ReplyChat func(chatID int64) bool

	Labels   render.Labels
	Location *time.Location

	// DigestIntensity is the /summary_now level when none is given.
	DigestIntensity int
	ReplyIntensity  int

	Observer Observer
}

// Option configures a Channel.
type Option func(*Channel)

// WithLogger sets the channel logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBotFactory replaces the Bot API connection, mainly for tests.
func WithBotFactory(f BotFactory) Option {
	return func(c *Channel) { c.factory = f }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Channel) { c.now = now }
}

// Channel is the Telegram side of the bot.
type Channel struct {
	config  Config
	deps    Deps
	logger  *slog.Logger
	factory BotFactory
	now     func() time.Time
	allowed map[int64]struct{}

	mu     sync.RWMutex
	bot    Bot
	poller *Poller
}

// New creates a Channel. Nothing connects until Start.
func New(cfg Config, deps Deps, opts ...Option) *Channel {
	cfg.Defaults()
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	c := &Channel{
		config:  cfg,
		deps:    deps,
		logger:  slog.Default(),
		factory: NewBot,
		now:     time.Now,
		allowed: make(map[int64]struct{}, len(cfg.AllowedChats)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "telegram")
	for _, id := range cfg.AllowedChats {
		c.allowed[id] = struct{}{}
	}
	return c
}

// Validate implements core.Validator.
func (c *Channel) Validate() error {
	var errs []error
	if err := c.config.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telegram: %w", err))
	}
	if c.deps.Log == nil || c.deps.Chats == nil || c.deps.Digests == nil {
		errs = append(errs, errors.New("telegram: log, chats and digests are required"))
	}
	return errors.Join(errs...)
}

// Connect verifies the token and readies Post without polling for
// updates. Start calls it.
func (c *Channel) Connect() error {
	if c.currentBot() != nil {
		return nil
	}
	if err := tgbotapi.SetLogger(botLogger{logger: c.logger}); err != nil {
		return fmt.Errorf("telegram: set logger: %w", err)
	}
	bot, err := c.factory(c.config)
	if err != nil {
		return err
	}
	self := bot.Self()
	c.logger.Info("connected", "bot", self.UserName, "bot_id", self.ID, "allowed_chats", len(c.allowed))

	c.mu.Lock()
	c.bot = bot
	c.mu.Unlock()
	return nil
}

// Start implements core.Starter. It connects the bot and starts polling.
func (c *Channel) Start() error {
	if err := c.Connect(); err != nil {
		return err
	}
	c.mu.Lock()
	c.poller = NewPoller(c, c.config.PollTimeout, c.logger)
	p := c.poller
	c.mu.Unlock()

	p.Start()
	return nil
}

// Stop implements core.Stopper. It waits for in-flight handlers.
func (c *Channel) Stop(ctx context.Context) error {
	c.mu.RLock()
	p := c.poller
	c.mu.RUnlock()
	if p == nil {
		return nil
	}
	return p.Stop(ctx)
}

// Post implements cron.Poster. Text longer than the message limit goes
// out as several messages.
func (c *Channel) Post(ctx context.Context, chatID int64, html string) error {
	bot := c.currentBot()
	if bot == nil {
		return errors.New("telegram: not started")
	}
	for _, chunk := range splitText(html, c.config.MaxMessageLength) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := bot.Send(htmlMessage(chatID, chunk, 0)); err != nil {
			return fmt.Errorf("telegram: post to %d: %w", chatID, err)
		}
	}
	return nil
}

func (c *Channel) currentBot() Bot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bot
}

func (c *Channel) isAllowed(chatID int64) bool {
	_, ok := c.allowed[chatID]
	return ok
}

func (c *Channel) replyActive(chatID int64) bool {
	if c.deps.Replies == nil {
		return false
	}
	return c.deps.ReplyChat == nil || c.deps.ReplyChat(chatID)
}

// route handles the fast part of an update inline and returns the slow
// part, if any, to run off the polling loop.
func (c *Channel) route(ctx context.Context, u tgbotapi.Update) func(context.Context) {
	m := u.Message
	if m == nil || m.Chat == nil {
		return nil
	}
	if !c.isAllowed(m.Chat.ID) {
		c.logger.Debug("update from chat not allowed", "chat_id", m.Chat.ID, "update_id", u.UpdateID)
		return nil
	}

	if m.IsCommand() {
		if !c.addressedToUs(m) {
			return nil
		}
		return func(ctx context.Context) { c.handleCommand(ctx, m) }
	}

	msg, ok := toMessage(m)
	if !ok {
		return nil
	}
	if err := c.deps.Log.Insert(ctx, msg.Normalize()); err != nil {
		c.logger.Error("log insert failed", "chat_id", msg.ChatID, "message_id", msg.ID, "error", err)
		return nil
	}
	if c.deps.Observer != nil {
		c.deps.Observer.MessageIngested()
	}

	if !c.replyActive(msg.ChatID) || !c.deps.Replies.ShouldReply(ctx, msg) {
		return nil
	}
	return func(ctx context.Context) { c.handleReply(ctx, msg) }
}

// addressedToUs drops "/cmd@otherbot" in groups with several bots.
func (c *Channel) addressedToUs(m *tgbotapi.Message) bool {
	at := m.CommandWithAt()
	i := len(m.Command())
	if i >= len(at) {
		return true
	}
	bot := c.currentBot()
	if bot == nil {
		return false
	}
	return strings.EqualFold(at[i+1:], bot.Self().UserName)
}

// send posts one HTML message, replying to replyTo when non-zero.
func (c *Channel) send(chatID int64, html string, replyTo int) (tgbotapi.Message, error) {
	bot := c.currentBot()
	if bot == nil {
		return tgbotapi.Message{}, errors.New("telegram: not started")
	}
	sent, err := bot.Send(htmlMessage(chatID, html, replyTo))
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("telegram: send to %d: %w", chatID, err)
	}
	return sent, nil
}

func htmlMessage(chatID int64, html string, replyTo int) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, html)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyToMessageID = replyTo
	return msg
}
