// Package quota enforces the per-user, per-chat, per-day reply quota.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flemzord/chatdigest/internal/provider"
)

// DateLayout is the layout of the date component of a Key.
const DateLayout = "2006-01-02"

// ErrQuotaExceeded matches every *ExceededError.
var ErrQuotaExceeded = errors.New("quota exceeded")

// Key identifies one quota record.
type Key struct {
	UserID int64
	ChatID int64
	Date   string
}

// Store persists quota counters. Increment must be atomic per key: it adds
// one only while the stored count is below limit, and reports the new count.
// ok is false when the limit was already reached; count is then undefined.
type Store interface {
	Increment(ctx context.Context, key Key, limit int) (count int, ok bool, err error)
	Reset(ctx context.Context, date string) error
}

// ExceededError is returned when a user is out of replies for the day. Its
// message is user-facing.
type ExceededError struct {
	Key   Key
	Limit int
	msg   string
}

func (e *ExceededError) Error() string { return e.msg }

// Is makes errors.Is(err, ErrQuotaExceeded) hold.
func (e *ExceededError) Is(target error) bool { return target == ErrQuotaExceeded }

// Limiter applies one daily limit through a Store.
type Limiter struct {
	store   Store
	limit   int
	loc     *time.Location
	message string
	logger  *slog.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(lim *Limiter) { lim.logger = l }
}

// WithLocation sets the zone that decides the date key. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(lim *Limiter) { lim.loc = loc }
}

// WithMessage sets the user-facing format of ExceededError. It receives
// the limit as its only argument.
func WithMessage(format string) Option {
	return func(lim *Limiter) { lim.message = format }
}

// NewLimiter creates a limiter allowing limit calls per key and day.
func NewLimiter(store Store, limit int, opts ...Option) *Limiter {
	l := &Limiter{
		store:   store,
		limit:   limit,
		loc:     time.UTC,
		message: "You have reached the daily limit of %d replies.",
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = provider.NopLogger()
	}
	return l
}

// Limit returns the daily limit.
func (l *Limiter) Limit() int { return l.limit }

// Today returns the date key for now in the limiter zone.
func (l *Limiter) Today(now time.Time) string {
	return now.In(l.loc).Format(DateLayout)
}

// CheckAndIncrement consumes one call for (userID, chatID, date) and
// returns the new count. Past the limit it returns *ExceededError and the
// stored count is unchanged.
func (l *Limiter) CheckAndIncrement(ctx context.Context, userID, chatID int64, date string) (int, error) {
	key := Key{UserID: userID, ChatID: chatID, Date: date}
	if l.limit <= 0 {
		return 0, l.exceeded(key)
	}

	count, ok, err := l.store.Increment(ctx, key, l.limit)
	if err != nil {
		return 0, fmt.Errorf("quota: increment: %w", err)
	}
	if !ok {
		l.logger.Info("quota exceeded", "user_id", userID, "chat_id", chatID, "date", date, "limit", l.limit)
		return l.limit, l.exceeded(key)
	}
	return count, nil
}

// Remaining returns how many calls are left after count were used.
func (l *Limiter) Remaining(count int) int {
	return max(l.limit-count, 0)
}

// Reset clears every counter of date. Test harnesses only.
func (l *Limiter) Reset(ctx context.Context, date string) error {
	if err := l.store.Reset(ctx, date); err != nil {
		return fmt.Errorf("quota: reset: %w", err)
	}
	return nil
}

func (l *Limiter) exceeded(key Key) *ExceededError {
	return &ExceededError{
		Key:   key,
		Limit: l.limit,
		msg:   fmt.Sprintf(l.message, max(l.limit, 0)),
	}
}
