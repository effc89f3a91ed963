package cron_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/chatdigest/internal/chatlog"
	"github.com/flemzord/chatdigest/internal/cron"
	"github.com/flemzord/chatdigest/internal/cron/crontest"
	"github.com/flemzord/chatdigest/pkg/message"
)

var kyiv = time.FixedZone("EET", 2*60*60)

func TestDigestRange(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 15, 21, 59, 0, 0, time.UTC) // 23:59 local
	midnight := time.Date(2024, 1, 15, 0, 0, 0, 0, kyiv)

	tests := []struct {
		window    string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{cron.WindowToday, midnight, now},
		{"", midnight, now},
		{cron.WindowPreviousDay, midnight.AddDate(0, 0, -1), midnight},
	}
	for _, tt := range tests {
		start, end := cron.DigestRange(tt.window, now, kyiv)
		if !start.Equal(tt.wantStart) || !end.Equal(tt.wantEnd) {
			t.Errorf("DigestRange(%q) = [%v, %v), want [%v, %v)", tt.window, start, end, tt.wantStart, tt.wantEnd)
		}
	}
}

func TestDigestJob_PostsOnlyToEligibleChats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	chats := chatlog.NewMemoryChats()
	for _, c := range []message.Chat{{ID: -1}, {ID: -2}, {ID: -3}, {ID: -4}} {
		_ = chats.SetEnabled(ctx, c, true)
	}
	_ = chats.SetEnabled(ctx, message.Chat{ID: -5}, false)

	digests := &crontest.MockDigester{Text: "<b>digest</b>", Skip: map[int64]bool{-4: true}}
	poster := &crontest.MockPoster{}
	now := time.Date(2024, 1, 15, 21, 59, 0, 0, time.UTC)

	j := &cron.DigestJob{
		Chats:     chats,
		Digests:   digests,
		Poster:    poster,
		Allowed:   func(id int64) bool { return id != -2 },
		Routed:    func(id int64) bool { return id != -3 },
		Location:  kyiv,
		Window:    cron.WindowToday,
		Intensity: 9,
		Now:       func() time.Time { return now },
	}
	if err := j.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := poster.Posts(-1); len(got) != 1 || got[0] != "<b>digest</b>" {
		t.Errorf("posts(-1) = %v", got)
	}
	for _, id := range []int64{-2, -3, -4, -5} {
		if got := poster.Posts(id); len(got) != 0 {
			t.Errorf("posts(%d) = %v, want none", id, got)
		}
	}

	reqs := digests.Requests()
	if len(reqs) != 2 {
		t.Fatalf("digest requests = %d, want 2 (chats -1 and -4)", len(reqs))
	}
	if reqs[0].Intensity != 9 || !reqs[0].End.Equal(now) {
		t.Errorf("request = %+v", reqs[0])
	}
}

func TestDigestJob_JoinsPostErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	chats := chatlog.NewMemoryChats()
	_ = chats.SetEnabled(ctx, message.Chat{ID: -1}, true)
	_ = chats.SetEnabled(ctx, message.Chat{ID: -2}, true)

	j := &cron.DigestJob{
		Chats:   chats,
		Digests: &crontest.MockDigester{Text: "x"},
		Poster:  &crontest.MockPoster{Err: errors.New("chat not found")},
	}
	err := j.Run(ctx)
	if err == nil || strings.Count(err.Error(), "chat not found") != 2 {
		t.Errorf("Run() error = %v, want both failures", err)
	}
}

type fakeRefresher struct {
	from, to time.Time
	err      error
}

func (f *fakeRefresher) RefreshAll(_ context.Context, from, to time.Time) (int, error) {
	f.from, f.to = from, to
	return 3, f.err
}

func TestTraitsJob(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 15, 4, 0, 0, 0, time.UTC)
	r := &fakeRefresher{}
	j := &cron.TraitsJob{Refresher: r, ActiveWithin: 48 * time.Hour, Now: func() time.Time { return now }}

	if j.Name() != "traits_refresh" || j.Schedule() != "0 4 * * *" {
		t.Errorf("Name/Schedule = %q/%q", j.Name(), j.Schedule())
	}
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !r.to.Equal(now) || !r.from.Equal(now.Add(-48*time.Hour)) {
		t.Errorf("range = [%v, %v)", r.from, r.to)
	}

	r.err = errors.New("backend down")
	if err := j.Run(context.Background()); err == nil {
		t.Error("Run() should surface refresher errors")
	}
}

func TestDigestJob_Defaults(t *testing.T) {
	t.Parallel()

	j := &cron.DigestJob{}
	if j.Name() != "daily_digest" || j.Schedule() != "59 23 * * *" {
		t.Errorf("Name/Schedule = %q/%q", j.Name(), j.Schedule())
	}
	j.ScheduleExpr = "0 20 * * *"
	if j.Schedule() != "0 20 * * *" {
		t.Errorf("Schedule() = %q", j.Schedule())
	}
}

func TestMockJob(t *testing.T) {
	t.Parallel()

	m := &crontest.MockJob{NameVal: "x", ScheduleVal: "* * * * *"}
	_ = m.Run(context.Background())
	if m.CallCount() != 1 || m.LastCall().IsZero() {
		t.Errorf("CallCount = %d", m.CallCount())
	}
}
