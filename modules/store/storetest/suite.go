// Package storetest is a conformance suite run against every store driver.
package storetest

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/flemzord/chatdigest/internal/chatlog"
	"github.com/flemzord/chatdigest/internal/quota"
	"github.com/flemzord/chatdigest/internal/traits"
	"github.com/flemzord/chatdigest/modules/store"
	"github.com/flemzord/chatdigest/pkg/message"
)

// Base is the reference time of the suite's fixtures.
var Base = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// Opener returns a fresh, empty store. It registers its own cleanup.
type Opener func(t *testing.T) store.Store

// Run executes every conformance test against stores returned by open.
func Run(t *testing.T, open Opener) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(*testing.T, store.Store)
	}{
		{"InsertIdempotent", testInsertIdempotent},
		{"RangeOrderingAndTies", testRangeOrdering},
		{"RecentDescending", testRecent},
		{"GetNotFound", testGetNotFound},
		{"ByUserAndActiveUsers", testByUser},
		{"Chats", testChats},
		{"QuotaLimit", testQuotaLimit},
		{"QuotaConcurrent", testQuotaConcurrent},
		{"Profiles", testProfiles},
		{"Ping", testPing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

// Msg builds a fixture message minutes after Base.
func Msg(chatID, id, userID int64, minutes int, text string) message.Message {
	return message.Message{
		ChatID:   chatID,
		ID:       id,
		UserID:   userID,
		Username: "u" + text,
		FullName: "User",
		Text:     text,
		Time:     Base.Add(time.Duration(minutes) * time.Minute),
	}
}

func insert(t *testing.T, s store.Store, msgs ...message.Message) {
	t.Helper()
	for _, m := range msgs {
		if err := s.Insert(context.Background(), m); err != nil {
			t.Fatalf("Insert(%d/%d): %v", m.ChatID, m.ID, err)
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

func testInsertIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()
	first := Msg(1, 10, 5, 0, "original")
	first.ReplyToID = 7
	insert(t, s, first)

	dup := first
	dup.Text = "edited"
	insert(t, s, dup)

	got, err := s.Get(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Text != "original" || got.ReplyToID != 7 || got.UserID != 5 {
		t.Errorf("Get() = %+v, want the first insert", got)
	}
	if !got.Time.Equal(Base) {
		t.Errorf("Time = %s, want %s", got.Time, Base)
	}

	rows, err := s.Range(ctx, 1, Base.Add(-time.Hour), Base.Add(time.Hour))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("Range() returned %d rows, want 1", len(rows))
	}
}

func testRangeOrdering(t *testing.T, s store.Store) {
	ctx := context.Background()
	insert(t, s,
		Msg(1, 3, 5, 10, "c"),
		Msg(1, 1, 5, 10, "a"),
		Msg(1, 2, 5, 10, "b"),
		Msg(1, 9, 5, 5, "earlier"),
		Msg(1, 8, 5, 20, "at the upper bound"),
		Msg(2, 4, 5, 10, "other chat"),
	)

	rows, err := s.Range(ctx, 1, Base, Base.Add(20*time.Minute))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if want := []int64{9, 1, 2, 3}; !slices.Equal(ids(rows), want) {
		t.Errorf("Range() ids = %v, want %v", ids(rows), want)
	}

	// Sub-second bounds: a row at Base+10m is inside [Base+9m59.5s, Base+10m0.5s).
	rows, err = s.Range(ctx, 1, Base.Add(10*time.Minute-500*time.Millisecond), Base.Add(10*time.Minute+500*time.Millisecond))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if want := []int64{1, 2, 3}; !slices.Equal(ids(rows), want) {
		t.Errorf("Range(sub-second) ids = %v, want %v", ids(rows), want)
	}
}

func testRecent(t *testing.T, s store.Store) {
	ctx := context.Background()
	insert(t, s,
		Msg(1, 1, 5, 0, "a"),
		Msg(1, 2, 5, 1, "b"),
		Msg(1, 3, 5, 1, "c"),
		Msg(1, 4, 5, 2, "d"),
		Msg(1, 5, 5, 3, "before bound"),
	)

	rows, err := s.Recent(ctx, 1, time.Time{}, Base.Add(3*time.Minute), 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if want := []int64{4, 3, 2}; !slices.Equal(ids(rows), want) {
		t.Errorf("Recent() ids = %v, want %v", ids(rows), want)
	}

	rows, err = s.Recent(ctx, 1, Base.Add(time.Minute), Base.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if want := []int64{5, 4, 3, 2}; !slices.Equal(ids(rows), want) {
		t.Errorf("Recent(from) ids = %v, want %v", ids(rows), want)
	}

	if rows, _ := s.Recent(ctx, 1, time.Time{}, Base.Add(time.Hour), 0); len(rows) != 0 {
		t.Errorf("Recent(limit 0) = %v", ids(rows))
	}
}

func testGetNotFound(t *testing.T, s store.Store) {
	_, err := s.Get(context.Background(), 1, 404)
	if !errors.Is(err, chatlog.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func testByUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	insert(t, s,
		Msg(1, 1, 5, 0, "a"),
		Msg(2, 1, 5, 2, "b"),
		Msg(1, 2, 6, 1, "c"),
		Msg(1, 3, 5, 3, "d"),
		Msg(1, 4, message.BotUserID, 1, "bot"),
		Msg(1, 5, 0, 1, "system"),
		Msg(1, 6, 7, 90, "outside"),
	)

	rows, err := s.ByUser(ctx, 5, 2)
	if err != nil {
		t.Fatalf("ByUser: %v", err)
	}
	if len(rows) != 2 || rows[0].Text != "d" || rows[1].Text != "b" {
		t.Errorf("ByUser() = %+v, want d then b", rows)
	}

	users, err := s.ActiveUsers(ctx, Base, Base.Add(time.Hour))
	if err != nil {
		t.Fatalf("ActiveUsers: %v", err)
	}
	if want := []int64{5, 6}; !slices.Equal(users, want) {
		t.Errorf("ActiveUsers() = %v, want %v", users, want)
	}
}

func testChats(t *testing.T, s store.Store) {
	ctx := context.Background()

	if on, err := s.Enabled(ctx, 42); err != nil || on {
		t.Fatalf("Enabled(unknown) = %v, %v", on, err)
	}

	chats := []message.Chat{
		{ID: -300, Type: message.ChatSupergroup, Title: "C", Username: "cee"},
		{ID: -100, Type: message.ChatGroup, Title: "A"},
		{ID: -200, Type: message.ChatSupergroup, Title: "B"},
	}
	for _, c := range chats {
		if err := s.SetEnabled(ctx, c, true); err != nil {
			t.Fatalf("SetEnabled: %v", err)
		}
	}
	if err := s.SetEnabled(ctx, chats[2], false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}

	list, err := s.ListEnabled(ctx)
	if err != nil {
		t.Fatalf("ListEnabled: %v", err)
	}
	if len(list) != 2 || list[0].ID != -300 || list[1].ID != -100 {
		t.Fatalf("ListEnabled() = %+v", list)
	}
	if list[0] != chats[0] {
		t.Errorf("ListEnabled()[0] = %+v, want %+v", list[0], chats[0])
	}
	if on, _ := s.Enabled(ctx, -200); on {
		t.Error("disabled chat reported enabled")
	}
}

func testQuotaLimit(t *testing.T, s store.Store) {
	ctx := context.Background()
	key := quota.Key{UserID: 5, ChatID: 1, Date: "2024-03-10"}

	for want := 1; want <= 3; want++ {
		n, ok, err := s.Increment(ctx, key, 3)
		if err != nil || !ok || n != want {
			t.Fatalf("Increment #%d = %d, %v, %v", want, n, ok, err)
		}
	}
	if _, ok, err := s.Increment(ctx, key, 3); err != nil || ok {
		t.Fatalf("Increment past the limit = ok %v, err %v", ok, err)
	}

	other := quota.Key{UserID: 5, ChatID: 2, Date: "2024-03-10"}
	if n, ok, _ := s.Increment(ctx, other, 3); !ok || n != 1 {
		t.Errorf("another chat shares the counter: %d, %v", n, ok)
	}

	if err := s.Reset(ctx, "2024-03-10"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if n, ok, _ := s.Increment(ctx, key, 3); !ok || n != 1 {
		t.Errorf("after Reset = %d, %v; want 1, true", n, ok)
	}
}

func testQuotaConcurrent(t *testing.T, s store.Store) {
	const (
		workers = 20
		limit   = 5
	)
	key := quota.Key{UserID: 9, ChatID: 1, Date: "2024-03-10"}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted []int
		errs    []error
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, ok, err := s.Increment(context.Background(), key, limit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if ok {
				granted = append(granted, n)
			}
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("Increment errors: %v", errors.Join(errs...))
	}
	slices.Sort(granted)
	if want := []int{1, 2, 3, 4, 5}; !slices.Equal(granted, want) {
		t.Errorf("granted counts = %v, want %v", granted, want)
	}
}

func testProfiles(t *testing.T, s store.Store) {
	ctx := context.Background()
	profiles := s.Profiles()

	if _, ok, err := profiles.Get(ctx, 5); err != nil || ok {
		t.Fatalf("Get(missing) = %v, %v", ok, err)
	}

	want := traits.Profile{
		Version:    traits.Version,
		Summary:    "Talks about pizza.",
		Topics:     []traits.Topic{{Name: "food", Score: 0.8}},
		Language:   traits.Language{Primary: "uk"},
		SampleSize: 42,
		UpdatedAt:  Base,
	}
	if err := profiles.Put(ctx, 5, want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	want.Summary = "Talks about pineapple."
	if err := profiles.Put(ctx, 5, want); err != nil {
		t.Fatalf("Put (update): %v", err)
	}

	got, ok, err := profiles.Get(ctx, 5)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if got.Summary != want.Summary || got.Language.Primary != "uk" || got.SampleSize != 42 ||
		len(got.Topics) != 1 || !got.UpdatedAt.Equal(Base) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func testPing(t *testing.T, s store.Store) {
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() = %v", err)
	}
}
