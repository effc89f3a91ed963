package render

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ChatLinker builds a permalink to a message of one chat.
type ChatLinker interface {
	MessageURL(messageID int64) string
}

// UserLinker builds a link to a user profile.
type UserLinker interface {
	UserURL(userID int64, username string) string
}

// TelegramChat links messages of a Telegram chat.
type TelegramChat struct {
	ID       int64
	Username string
}

// MessageURL implements ChatLinker. Public chats link by username, private
// supergroups through the t.me/c form without the -100 prefix.
func (c TelegramChat) MessageURL(messageID int64) string {
	if c.Username != "" {
		return fmt.Sprintf("https://t.me/%s/%d", url.PathEscape(c.Username), messageID)
	}
	id := strconv.FormatInt(c.ID, 10)
	if rest, ok := strings.CutPrefix(id, "-100"); ok {
		id = rest
	} else {
		id = strings.TrimPrefix(id, "-")
	}
	return fmt.Sprintf("https://t.me/c/%s/%d", id, messageID)
}

// TelegramUsers links Telegram users.
type TelegramUsers struct{}

// UserURL implements UserLinker.
func (TelegramUsers) UserURL(userID int64, username string) string {
	if username != "" {
		return "https://t.me/" + url.PathEscape(username)
	}
	return fmt.Sprintf("tg://user?id=%d", userID)
}
