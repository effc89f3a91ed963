package ctxengine_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/chatdigest/internal/chatlog"
	"github.com/flemzord/chatdigest/pkg/message"
)

// wordCounter implements ctxengine.TokenCounter with one token per word.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

var day = time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)

func minute(n int) time.Time { return day.Add(time.Duration(n) * time.Minute) }

func newLog(t *testing.T, msgs ...message.Message) *chatlog.MemoryLog {
	t.Helper()
	l := chatlog.NewMemoryLog()
	for _, m := range msgs {
		if err := l.Insert(context.Background(), m); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	return l
}

func msg(id int64, at int, text string) message.Message {
	return message.Message{
		ChatID:   1,
		ID:       id,
		UserID:   100 + id,
		FullName: "User",
		Text:     text,
		Time:     minute(at),
	}
}
