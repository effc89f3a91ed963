package chatlog

import (
	"context"
	"slices"
	"sync"

	"github.com/flemzord/chatdigest/pkg/message"
)

type chatState struct {
	chat    message.Chat
	enabled bool
}

// MemoryChats is a thread-safe, in-memory implementation of Chats.
type MemoryChats struct {
	mu    sync.RWMutex
	chats map[int64]chatState
}

// NewMemoryChats creates an empty registry.
func NewMemoryChats() *MemoryChats {
	return &MemoryChats{chats: make(map[int64]chatState)}
}

// Compile-time interface check.
var _ Chats = (*MemoryChats)(nil)

// SetEnabled records the chat and its digest flag.
func (c *MemoryChats) SetEnabled(_ context.Context, chat message.Chat, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chats[chat.ID] = chatState{chat: chat, enabled: enabled}
	return nil
}

// Enabled reports whether digests are on for chatID. Unknown chats are off.
func (c *MemoryChats) Enabled(_ context.Context, chatID int64) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chats[chatID].enabled, nil
}

// ListEnabled returns enabled chats ordered by id.
func (c *MemoryChats) ListEnabled(_ context.Context) ([]message.Chat, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []message.Chat
	for _, st := range c.chats {
		if st.enabled {
			out = append(out, st.chat)
		}
	}
	slices.SortFunc(out, func(a, b message.Chat) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}
