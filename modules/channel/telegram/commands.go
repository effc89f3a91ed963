package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/flemzord/chatdigest/internal/cron"
	"github.com/flemzord/chatdigest/internal/digest"
	"github.com/flemzord/chatdigest/internal/quota"
	"github.com/flemzord/chatdigest/pkg/message"
)

// Commands served in allowed chats.
const (
	CmdChatID           = "chatid"
	CmdSummaryNow       = "summary_now"
	CmdEnableSummaries  = "enable_summaries"
	CmdDisableSummaries = "disable_summaries"
	CmdStatusSummaries  = "status_summaries"
)

func (c *Channel) handleCommand(ctx context.Context, m *tgbotapi.Message) {
	logger := c.logger.With("chat_id", m.Chat.ID, "command", m.Command())

	var (
		text string
		err  error
	)
	switch m.Command() {
	case CmdChatID:
		text = fmt.Sprintf("<code>%d</code>", m.Chat.ID)
	case CmdSummaryNow:
		err = c.summaryNow(ctx, m)
	case CmdEnableSummaries, CmdDisableSummaries:
		text, err = c.setSummaries(ctx, m, m.Command() == CmdEnableSummaries)
	case CmdStatusSummaries:
		text, err = c.summariesStatus(ctx, m)
	default:
		return
	}
	if err != nil {
		logger.Error("command failed", "error", err)
		return
	}
	if text == "" {
		return
	}
	if _, err := c.send(m.Chat.ID, text, m.MessageID); err != nil {
		logger.Error("command answer failed", "error", err)
	}
}

// summaryNow posts a placeholder, then replaces it with a digest of the
// day so far.
func (c *Channel) summaryNow(ctx context.Context, m *tgbotapi.Message) error {
	intensity := c.deps.DigestIntensity
	if arg := strings.Fields(m.CommandArguments()); len(arg) > 0 {
		if n, err := strconv.Atoi(arg[0]); err == nil {
			intensity = n
		}
	}

	placeholder, err := c.send(m.Chat.ID, c.deps.Labels.Working, m.MessageID)
	if err != nil {
		return err
	}

	start, end := cron.DigestRange(cron.WindowToday, c.now(), c.deps.Location)
	text, ok := c.deps.Digests.Generate(ctx, digest.Request{
		Chat:      toChat(m.Chat),
		Start:     start,
		End:       end,
		Intensity: intensity,
	})
	if !ok {
		text = c.deps.Labels.DigestEmpty
	}
	return c.replace(ctx, m.Chat.ID, placeholder.MessageID, text)
}

// replace edits messageID to hold text. Overflow goes out as follow-up
// messages.
func (c *Channel) replace(ctx context.Context, chatID int64, messageID int, text string) error {
	chunks := splitText(text, c.config.MaxMessageLength)

	edit := tgbotapi.NewEditMessageText(chatID, messageID, chunks[0])
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	bot := c.currentBot()
	if bot == nil {
		return errors.New("telegram: not started")
	}
	if _, err := bot.Send(edit); err != nil {
		return fmt.Errorf("telegram: edit %d/%d: %w", chatID, messageID, err)
	}

	for _, chunk := range chunks[1:] {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := c.send(chatID, chunk, 0); err != nil {
			return err
		}
	}
	return nil
}

func (c *Channel) setSummaries(ctx context.Context, m *tgbotapi.Message, enabled bool) (string, error) {
	if err := c.deps.Chats.SetEnabled(ctx, toChat(m.Chat), enabled); err != nil {
		return "", fmt.Errorf("telegram: set summaries: %w", err)
	}
	c.logger.Info("summaries toggled", "chat_id", m.Chat.ID, "enabled", enabled)
	if enabled {
		return c.deps.Labels.SummariesEnabled, nil
	}
	return c.deps.Labels.SummariesDisabled, nil
}

func (c *Channel) summariesStatus(ctx context.Context, m *tgbotapi.Message) (string, error) {
	on, err := c.deps.Chats.Enabled(ctx, m.Chat.ID)
	if err != nil {
		return "", fmt.Errorf("telegram: summaries status: %w", err)
	}
	if on {
		return c.deps.Labels.StatusEnabled, nil
	}
	return c.deps.Labels.StatusDisabled, nil
}

// handleReply answers a trigger and logs the answer under the bot's id.
func (c *Channel) handleReply(ctx context.Context, msg message.Message) {
	logger := c.logger.With("chat_id", msg.ChatID, "message_id", msg.ID)

	text, err := c.deps.Replies.Generate(ctx, msg, c.deps.ReplyIntensity)
	if err != nil {
		var exceeded *quota.ExceededError
		if !errors.As(err, &exceeded) {
			logger.Error("reply failed", "error", err)
			return
		}
		if c.deps.Observer != nil {
			c.deps.Observer.QuotaRejected()
		}
		if _, err := c.send(msg.ChatID, exceeded.Error(), int(msg.ID)); err != nil {
			logger.Error("quota notice failed", "error", err)
		}
		return
	}

	sent, err := c.send(msg.ChatID, text, int(msg.ID))
	if err != nil {
		logger.Error("reply send failed", "error", err)
		return
	}
	record := sentMessage(sent, html.UnescapeString(text), msg.ID, c.now())
	if record.ChatID == 0 {
		record.ChatID = msg.ChatID
	}
	if err := c.deps.Replies.Record(ctx, record); err != nil {
		logger.Error("reply record failed", "error", err)
	}
}
