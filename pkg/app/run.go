package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flemzord/chatdigest/internal/core"
	"github.com/flemzord/chatdigest/internal/cron"
	"github.com/flemzord/chatdigest/internal/digest"
	"github.com/flemzord/chatdigest/pkg/message"
)

// Run loads the configuration, starts the bot and blocks until ctx is done
// or SIGINT/SIGTERM arrives.
func Run(ctx context.Context, params Params) error {
	cfg, path, err := Load(params)
	if err != nil {
		return err
	}
	b, err := Build(ctx, cfg, params)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := b.Close(closeCtx); err != nil {
			b.Logger.Error("close failed", "error", err)
		}
	}()

	b.Logger.Info("chatdigest starting",
		"version", params.Version,
		"config", path,
		"backends", b.Gateway.Backends(),
		"storage", cfg.Storage.Driver,
		"timezone", cfg.Timezone,
	)
	if err := b.EnableRoutedChats(ctx); err != nil {
		return err
	}
	return b.App().Run(ctx)
}

// App returns the lifecycle of the long-running components: the Telegram
// poller first so the scheduler can post, then the scheduler and the ops
// server.
func (b *Bot) App() *core.App {
	a := core.NewApp(b.Logger)
	a.Add("telegram", b.Telegram)
	a.Add("scheduler", b.Scheduler)
	if b.Ops != nil {
		a.Add("ops", b.Ops)
	}
	return a
}

// EnableRoutedChats marks every allowed chat with a backend route as
// enabled for scheduled digests.
func (b *Bot) EnableRoutedChats(ctx context.Context) error {
	n := 0
	for _, id := range b.Config.Telegram.AllowedChats {
		if !b.Gateway.Routed(id) {
			continue
		}
		chat, err := b.chat(ctx, id)
		if err != nil {
			return err
		}
		if err := b.Store.SetEnabled(ctx, chat, true); err != nil {
			return fmt.Errorf("app: enable chat %d: %w", id, err)
		}
		n++
	}
	b.Logger.Info("routed chats enabled", "count", n)
	return nil
}

// chat returns the stored metadata of chatID, or a bare Chat when none is
// known.
func (b *Bot) chat(ctx context.Context, chatID int64) (message.Chat, error) {
	chats, err := b.Store.ListEnabled(ctx)
	if err != nil {
		return message.Chat{}, fmt.Errorf("app: list chats: %w", err)
	}
	for _, c := range chats {
		if c.ID == chatID {
			return c, nil
		}
	}
	return message.Chat{ID: chatID}, nil
}

// DigestRequest is a one-off digest run.
type DigestRequest struct {
	ChatID int64

	// Date selects a full local day. Zero means today so far.
	Date time.Time

	Intensity int

	// Post sends the digest to the chat instead of only returning it.
	Post bool
}

// ErrNoDigest is returned by Digest when nothing qualified.
var ErrNoDigest = errors.New("app: no digest for this window")

// Digest generates one digest outside the schedule.
func (b *Bot) Digest(ctx context.Context, req DigestRequest) (string, error) {
	if !b.Config.Allowed(req.ChatID) {
		return "", fmt.Errorf("app: chat %d is not in telegram.allowed_chats", req.ChatID)
	}
	chat, err := b.chat(ctx, req.ChatID)
	if err != nil {
		return "", err
	}

	loc := b.Config.Location()
	start, end := cron.DigestRange(cron.WindowToday, time.Now(), loc)
	if !req.Date.IsZero() {
		start = time.Date(req.Date.Year(), req.Date.Month(), req.Date.Day(), 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 1)
	}

	text, ok := b.Digests.Generate(ctx, digest.Request{
		Chat:      chat,
		Start:     start,
		End:       end,
		Intensity: req.Intensity,
	})
	if !ok {
		return "", ErrNoDigest
	}
	if req.Post {
		if err := b.Telegram.Connect(); err != nil {
			return "", err
		}
		if err := b.Telegram.Post(ctx, req.ChatID, text); err != nil {
			return "", err
		}
	}
	return text, nil
}

// ErrTraitsDisabled is returned by RefreshTraits when traits.enabled is
// false.
var ErrTraitsDisabled = errors.New("app: traits are disabled")

// RefreshTraits recomputes one user's profile, or every user active within
// traits.active_within when userID is zero. It returns the number of
// profiles written.
func (b *Bot) RefreshTraits(ctx context.Context, userID int64) (int, error) {
	if b.Refresher == nil {
		return 0, ErrTraitsDisabled
	}
	if userID != 0 {
		if _, err := b.Refresher.Refresh(ctx, userID); err != nil {
			return 0, err
		}
		return 1, nil
	}
	now := time.Now()
	return b.Refresher.RefreshAll(ctx, now.Add(-b.Config.Traits.ActiveWithin), now)
}
