// Package message defines the chat log data contract shared by the ingestion
// channel, the stores, and the orchestration core.
package message

import (
	"strconv"
	"time"
)

// BotUserID is the default sentinel author of messages the bot posted itself.
// Re-inserting replies under this id lets later windows recognise them.
const BotUserID int64 = -1

// ChatType indicates the kind of conversation.
type ChatType string

const (
	// ChatPrivate is a one-to-one conversation with the bot.
	ChatPrivate ChatType = "private"
	// ChatGroup is a basic group.
	ChatGroup ChatType = "group"
	// ChatSupergroup is a large group with permalinks.
	ChatSupergroup ChatType = "supergroup"
	// ChatChannel is a broadcast channel.
	ChatChannel ChatType = "channel"
)

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID       int64    `json:"id"`
	Type     ChatType `json:"type,omitempty"`
	Title    string   `json:"title,omitempty"`
	Username string   `json:"username,omitempty"`
}

// IsGroup reports whether the chat is a group or supergroup.
func (c Chat) IsGroup() bool {
	return c.Type == ChatGroup || c.Type == ChatSupergroup
}

// IsPublic reports whether the chat has a public handle.
func (c Chat) IsPublic() bool {
	return c.Username != ""
}

// Message is one chat utterance. Messages are immutable once logged.
type Message struct {
	ChatID int64 `json:"chat_id"`
	ID     int64 `json:"id"`

	// UserID is zero for system-authored messages.
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`

	Text      string    `json:"text"`
	ReplyToID int64     `json:"reply_to_id,omitempty"`
	Time      time.Time `json:"time"`
}

// DisplayName returns the full name, else "@username", else "id<uid>".
func (m Message) DisplayName() string {
	switch {
	case m.FullName != "":
		return m.FullName
	case m.Username != "":
		return "@" + m.Username
	default:
		return "id" + strconv.FormatInt(m.UserID, 10)
	}
}

// IsReply reports whether the message answers another message.
func (m Message) IsReply() bool {
	return m.ReplyToID != 0
}

// AuthoredBy reports whether userID wrote the message.
func (m Message) AuthoredBy(userID int64) bool {
	return m.UserID == userID
}

// Normalize returns a copy with the timestamp in UTC at second precision.
func (m Message) Normalize() Message {
	m.Time = m.Time.UTC().Truncate(time.Second)
	return m
}
