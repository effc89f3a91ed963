package chatlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flemzord/chatdigest/pkg/message"
)

var base = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func at(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

func seed(t *testing.T, l *MemoryLog, msgs ...message.Message) {
	t.Helper()
	for _, m := range msgs {
		if err := l.Insert(context.Background(), m); err != nil {
			t.Fatalf("Insert(%d): %v", m.ID, err)
		}
	}
}

func ids(msgs []message.Message) []int64 {
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMemoryLog_InsertIdempotent(t *testing.T) {
	t.Parallel()

	l := NewMemoryLog()
	seed(t, l,
		message.Message{ChatID: 1, ID: 10, Text: "first", Time: at(0)},
		message.Message{ChatID: 1, ID: 10, Text: "duplicate", Time: at(5)},
	)

	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
	got, err := l.Get(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Text != "first" {
		t.Errorf("Text = %q, want original %q", got.Text, "first")
	}
}

func TestMemoryLog_RangeAscendingWithTieBreak(t *testing.T) {
	t.Parallel()

	l := NewMemoryLog()
	seed(t, l,
		message.Message{ChatID: 1, ID: 3, Time: at(1)},
		message.Message{ChatID: 1, ID: 2, Time: at(1)},
		message.Message{ChatID: 1, ID: 1, Time: at(0)},
		message.Message{ChatID: 1, ID: 4, Time: at(10)},
		message.Message{ChatID: 2, ID: 5, Time: at(1)},
	)

	got, err := l.Range(context.Background(), 1, at(0), at(10))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if want := []int64{1, 2, 3}; !equalIDs(ids(got), want) {
		t.Errorf("Range ids = %v, want %v", ids(got), want)
	}
}

func TestMemoryLog_RecentDescending(t *testing.T) {
	t.Parallel()

	l := NewMemoryLog()
	for i := int64(1); i <= 5; i++ {
		seed(t, l, message.Message{ChatID: 1, ID: i, Time: at(int(i))})
	}

	tests := []struct {
		name   string
		from   time.Time
		before time.Time
		limit  int
		want   []int64
	}{
		{"unbounded from", time.Time{}, at(5), 10, []int64{4, 3, 2, 1}},
		{"limit applied", time.Time{}, at(6), 2, []int64{5, 4}},
		{"lower bound", at(3), at(6), 10, []int64{5, 4, 3}},
		{"zero limit", time.Time{}, at(6), 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Recent(context.Background(), 1, tt.from, tt.before, tt.limit)
			if err != nil {
				t.Fatalf("Recent: %v", err)
			}
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("Recent ids = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestMemoryLog_GetNotFound(t *testing.T) {
	t.Parallel()

	_, err := NewMemoryLog().Get(context.Background(), 1, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
}

func TestMemoryLog_ByUserAndActiveUsers(t *testing.T) {
	t.Parallel()

	l := NewMemoryLog()
	seed(t, l,
		message.Message{ChatID: 1, ID: 1, UserID: 7, Time: at(0)},
		message.Message{ChatID: 2, ID: 2, UserID: 7, Time: at(2)},
		message.Message{ChatID: 1, ID: 3, UserID: 8, Time: at(3)},
		message.Message{ChatID: 1, ID: 4, UserID: message.BotUserID, Time: at(4)},
	)

	got, err := l.ByUser(context.Background(), 7, 10)
	if err != nil {
		t.Fatalf("ByUser: %v", err)
	}
	if want := []int64{2, 1}; !equalIDs(ids(got), want) {
		t.Errorf("ByUser ids = %v, want %v", ids(got), want)
	}

	users, err := l.ActiveUsers(context.Background(), at(0), at(10))
	if err != nil {
		t.Fatalf("ActiveUsers: %v", err)
	}
	if want := []int64{7, 8}; !equalIDs(users, want) {
		t.Errorf("ActiveUsers = %v, want %v", users, want)
	}
}

func TestMemoryChats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemoryChats()

	if on, _ := c.Enabled(ctx, 5); on {
		t.Error("unknown chat should be disabled")
	}

	_ = c.SetEnabled(ctx, message.Chat{ID: 5, Title: "five"}, true)
	_ = c.SetEnabled(ctx, message.Chat{ID: 2, Title: "two"}, true)
	_ = c.SetEnabled(ctx, message.Chat{ID: 9}, false)

	list, err := c.ListEnabled(ctx)
	if err != nil {
		t.Fatalf("ListEnabled: %v", err)
	}
	if len(list) != 2 || list[0].ID != 2 || list[1].ID != 5 {
		t.Errorf("ListEnabled = %+v, want chats 2 and 5", list)
	}

	_ = c.SetEnabled(ctx, message.Chat{ID: 5}, false)
	if on, _ := c.Enabled(ctx, 5); on {
		t.Error("chat 5 should be disabled after SetEnabled(false)")
	}
}
