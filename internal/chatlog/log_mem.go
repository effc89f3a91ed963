package chatlog

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/flemzord/chatdigest/pkg/message"
)

type msgKey struct {
	chat int64
	id   int64
}

// MemoryLog is a thread-safe, in-memory implementation of Log.
type MemoryLog struct {
	mu     sync.RWMutex
	byKey  map[msgKey]message.Message
	byChat map[int64][]message.Message // kept sorted by Less
}

// NewMemoryLog creates an empty log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		byKey:  make(map[msgKey]message.Message),
		byChat: make(map[int64][]message.Message),
	}
}

// Compile-time interface check.
var _ Log = (*MemoryLog)(nil)

// Insert stores m unless (chat, id) already exists.
func (l *MemoryLog) Insert(_ context.Context, m message.Message) error {
	m = m.Normalize()
	k := msgKey{chat: m.ChatID, id: m.ID}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byKey[k]; exists {
		return nil
	}
	l.byKey[k] = m

	msgs := l.byChat[m.ChatID]
	i, _ := slices.BinarySearchFunc(msgs, m, Compare)
	l.byChat[m.ChatID] = slices.Insert(msgs, i, m)
	return nil
}

// Range returns messages in [from, to), oldest first.
func (l *MemoryLog) Range(_ context.Context, chatID int64, from, to time.Time) ([]message.Message, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []message.Message
	for _, m := range l.byChat[chatID] {
		if inRange(m.Time, from, to) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Recent returns up to limit messages in [from, before), newest first.
func (l *MemoryLog) Recent(_ context.Context, chatID int64, from, before time.Time, limit int) ([]message.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	msgs := l.byChat[chatID]
	var out []message.Message
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		if inRange(msgs[i].Time, from, before) {
			out = append(out, msgs[i])
		}
	}
	return out, nil
}

// Get returns a single message.
func (l *MemoryLog) Get(_ context.Context, chatID, messageID int64) (message.Message, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.byKey[msgKey{chat: chatID, id: messageID}]
	if !ok {
		return message.Message{}, ErrNotFound
	}
	return m, nil
}

// ByUser returns the user's latest messages, newest first.
func (l *MemoryLog) ByUser(_ context.Context, userID int64, limit int) ([]message.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	l.mu.RLock()
	var out []message.Message
	for _, m := range l.byKey {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	l.mu.RUnlock()

	slices.SortFunc(out, func(a, b message.Message) int { return Compare(b, a) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ActiveUsers lists distinct positive author ids in [from, to), ascending.
func (l *MemoryLog) ActiveUsers(_ context.Context, from, to time.Time) ([]int64, error) {
	l.mu.RLock()
	seen := make(map[int64]struct{})
	for _, m := range l.byKey {
		if m.UserID > 0 && inRange(m.Time, from, to) {
			seen[m.UserID] = struct{}{}
		}
	}
	l.mu.RUnlock()

	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out, nil
}

// Len returns the number of stored messages.
func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byKey)
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	return t.Before(to)
}
