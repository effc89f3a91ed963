package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flemzord/chatdigest/internal/chatlog"
	"github.com/flemzord/chatdigest/internal/digest"
	"github.com/flemzord/chatdigest/pkg/message"
)

// Digest windows.
const (
	WindowToday       = "today"
	WindowPreviousDay = "previous_day"
)

// Digester is the subset of digest.Service used by DigestJob.
type Digester interface {
	Generate(ctx context.Context, req digest.Request) (string, bool)
}

// Poster delivers an HTML message to a chat.
type Poster interface {
	Post(ctx context.Context, chatID int64, html string) error
}

// DigestRange returns the [start, end) range a digest window covers at now
// in loc. Unknown windows behave like WindowToday.
func DigestRange(window string, now time.Time, loc *time.Location) (start, end time.Time) {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if window == WindowPreviousDay {
		return midnight.AddDate(0, 0, -1), midnight
	}
	return midnight, now
}

// DigestJob posts the daily digest to every enabled, allowed and routed
// chat.
type DigestJob struct {
	Chats    chatlog.Chats
	Digests  Digester
	Poster   Poster
	Allowed  func(chatID int64) bool
	Routed   func(chatID int64) bool
	Logger   *slog.Logger
	Location *time.Location

	Window       string // WindowToday or WindowPreviousDay
	Intensity    int
	ScheduleExpr string // empty = default "59 23 * * *"

	// Now defaults to time.Now.
	Now func() time.Time
}

// Compile-time interface check.
var _ Job = (*DigestJob)(nil)

// Name implements Job.
func (j *DigestJob) Name() string { return "daily_digest" }

// Schedule implements Job.
func (j *DigestJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "59 23 * * *"
}

// Run generates and posts one digest per eligible chat. A failure in one
// chat does not stop the others; all failures are returned joined.
func (j *DigestJob) Run(ctx context.Context) error {
	chats, err := j.Chats.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("cron: list enabled chats: %w", err)
	}

	loc := j.Location
	if loc == nil {
		loc = time.Local
	}
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	start, end := DigestRange(j.Window, now(), loc)

	var errs []error
	var posted int
	for _, chat := range chats {
		if ctx.Err() != nil {
			errs = append(errs, fmt.Errorf("cron: daily digest cancelled: %w", ctx.Err()))
			break
		}
		if !j.eligible(chat) {
			j.logger().Debug("cron: chat skipped", "chat_id", chat.ID)
			continue
		}

		text, ok := j.Digests.Generate(ctx, digest.Request{
			Chat:      chat,
			Start:     start,
			End:       end,
			Intensity: j.Intensity,
		})
		if !ok {
			continue
		}
		if err := j.Poster.Post(ctx, chat.ID, text); err != nil {
			errs = append(errs, fmt.Errorf("cron: post digest to %d: %w", chat.ID, err))
			continue
		}
		posted++
	}

	j.logger().Info("cron: daily digest finished", "chats", len(chats), "posted", posted, "failed", len(errs))
	return errors.Join(errs...)
}

func (j *DigestJob) eligible(chat message.Chat) bool {
	if j.Allowed != nil && !j.Allowed(chat.ID) {
		return false
	}
	if j.Routed != nil && !j.Routed(chat.ID) {
		return false
	}
	return true
}

func (j *DigestJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

// Refresher is the subset of traits.Refresher used by TraitsJob.
type Refresher interface {
	RefreshAll(ctx context.Context, from, to time.Time) (int, error)
}

// TraitsJob recomputes the trait profiles of recently active users.
type TraitsJob struct {
	Refresher    Refresher
	ActiveWithin time.Duration // empty = 30 days
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 4 * * *"

	// Now defaults to time.Now.
	Now func() time.Time
}

// Compile-time interface check.
var _ Job = (*TraitsJob)(nil)

// Name implements Job.
func (j *TraitsJob) Name() string { return "traits_refresh" }

// Schedule implements Job.
func (j *TraitsJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 4 * * *"
}

// Run refreshes every user with messages inside ActiveWithin.
func (j *TraitsJob) Run(ctx context.Context) error {
	within := j.ActiveWithin
	if within <= 0 {
		within = 30 * 24 * time.Hour
	}
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	to := now()

	n, err := j.Refresher.RefreshAll(ctx, to.Add(-within), to)
	if j.Logger != nil {
		j.Logger.Info("cron: traits refreshed", "users", n)
	}
	if err != nil {
		return fmt.Errorf("cron: traits refresh: %w", err)
	}
	return nil
}
