// Package chatlog defines the message log and chat registry consumed by the
// digest and reply paths, plus in-memory implementations used by tests and
// one-off CLI runs.
package chatlog

import (
	"context"
	"errors"
	"time"

	"github.com/flemzord/chatdigest/pkg/message"
)

// ErrNotFound is returned by Get when no message matches.
var ErrNotFound = errors.New("chatlog: message not found")

// Log is an append-only store of chat messages.
type Log interface {
	// Insert stores m. Inserting an existing (chat, id) pair is a no-op.
	Insert(ctx context.Context, m message.Message) error

	// Range returns messages with from <= Time < to in ascending order.
	Range(ctx context.Context, chatID int64, from, to time.Time) ([]message.Message, error)

	// Recent returns up to limit messages with from <= Time < before,
	// newest first. A zero from means no lower bound.
	Recent(ctx context.Context, chatID int64, from, before time.Time, limit int) ([]message.Message, error)

	// Get returns a single message or ErrNotFound.
	Get(ctx context.Context, chatID, messageID int64) (message.Message, error)

	// ByUser returns the user's latest messages across chats, newest first.
	ByUser(ctx context.Context, userID int64, limit int) ([]message.Message, error)

	// ActiveUsers lists distinct human authors with messages in [from, to).
	ActiveUsers(ctx context.Context, from, to time.Time) ([]int64, error)
}

// Chats tracks which chats receive scheduled digests.
type Chats interface {
	SetEnabled(ctx context.Context, chat message.Chat, enabled bool) error
	Enabled(ctx context.Context, chatID int64) (bool, error)
	ListEnabled(ctx context.Context) ([]message.Chat, error)
}

// Less orders messages by time, then by id.
func Less(a, b message.Message) bool {
	if !a.Time.Equal(b.Time) {
		return a.Time.Before(b.Time)
	}
	return a.ID < b.ID
}

// Compare is Less in cmp form for slices.SortFunc.
func Compare(a, b message.Message) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	default:
		return 0
	}
}
