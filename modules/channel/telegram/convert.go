package telegram

import (
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/flemzord/chatdigest/pkg/message"
)

// toMessage converts a Telegram message to a log entry. Captions stand in
// for text on media messages. ok is false when there is nothing to log.
func toMessage(m *tgbotapi.Message) (message.Message, bool) {
	if m == nil || m.Chat == nil {
		return message.Message{}, false
	}
	text := m.Text
	if text == "" {
		text = m.Caption
	}
	if message.IsBlank(text) {
		return message.Message{}, false
	}

	out := message.Message{
		ChatID: m.Chat.ID,
		ID:     int64(m.MessageID),
		Text:   text,
		Time:   time.Unix(int64(m.Date), 0).UTC(),
	}
	if u := m.From; u != nil {
		out.UserID = u.ID
		out.Username = u.UserName
		out.FullName = fullName(u)
	}
	if m.ReplyToMessage != nil {
		out.ReplyToID = int64(m.ReplyToMessage.MessageID)
	}
	return out, true
}

func fullName(u *tgbotapi.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func toChat(c *tgbotapi.Chat) message.Chat {
	if c == nil {
		return message.Chat{}
	}
	return message.Chat{
		ID:       c.ID,
		Type:     message.ChatType(c.Type),
		Title:    c.Title,
		Username: c.UserName,
	}
}

// sentMessage describes a message the bot just posted, for the log.
func sentMessage(sent tgbotapi.Message, text string, replyTo int64, now time.Time) message.Message {
	m := message.Message{
		ID:        int64(sent.MessageID),
		Text:      text,
		ReplyToID: replyTo,
		Time:      now,
	}
	if sent.Chat != nil {
		m.ChatID = sent.Chat.ID
	}
	if sent.Date != 0 {
		m.Time = time.Unix(int64(sent.Date), 0)
	}
	if sent.From != nil {
		m.Username = sent.From.UserName
		m.FullName = fullName(sent.From)
	}
	return m
}
