package traits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flemzord/chatdigest/internal/chatlog"
	ctxengine "github.com/flemzord/chatdigest/internal/context"
	"github.com/flemzord/chatdigest/internal/prompt"
	"github.com/flemzord/chatdigest/internal/provider"
	"github.com/flemzord/chatdigest/pkg/message"
)

// Refresher defaults.
const (
	DefaultSampleSize  = 500
	DefaultConcurrency = 5
	DefaultMaxTokens   = 28000
)

// RefresherConfig tunes a Refresher.
type RefresherConfig struct {
	SampleSize  int
	Concurrency int
	MaxTokens   int
	Location    *time.Location
}

func (c RefresherConfig) withDefaults() RefresherConfig {
	if c.SampleSize <= 0 {
		c.SampleSize = DefaultSampleSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	return c
}

// Refresher recomputes profiles from each user's recent messages.
type Refresher struct {
	log     chatlog.Log
	gateway *provider.Gateway
	backend provider.Backend
	store   Store
	counter ctxengine.TokenCounter
	cfg     RefresherConfig
	now     func() time.Time
	logger  *slog.Logger
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) RefresherOption {
	return func(r *Refresher) { r.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) RefresherOption {
	return func(r *Refresher) { r.now = now }
}

// NewRefresher creates a refresher that asks backend through gateway.
func NewRefresher(log chatlog.Log, gateway *provider.Gateway, backend provider.Backend, store Store, counter ctxengine.TokenCounter, cfg RefresherConfig, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		log:     log,
		gateway: gateway,
		backend: backend,
		store:   store,
		counter: counter,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = provider.NopLogger()
	}
	return r
}

// Refresh recomputes and stores the profile of one user. A user with no
// messages gets an empty profile so stale data does not linger.
func (r *Refresher) Refresh(ctx context.Context, userID int64) (Profile, error) {
	rows, err := r.log.ByUser(ctx, userID, r.cfg.SampleSize)
	if err != nil {
		return Profile{}, fmt.Errorf("traits: load messages of %d: %w", userID, err)
	}

	p := Profile{Version: Version}
	if sample := r.sample(rows); sample != "" {
		req := provider.Request{
			System: prompt.TraitsSystem,
			Prompt: prompt.Traits(sample),
		}
		if err := r.gateway.Invoke(ctx, r.backend, req, Contract, &p); err != nil {
			return Profile{}, fmt.Errorf("traits: profile %d: %w", userID, err)
		}
	}

	p.Version = Version
	p.SampleSize = len(rows)
	p.UpdatedAt = r.now().UTC()
	p.Normalize()

	if err := r.store.Put(ctx, userID, p); err != nil {
		return Profile{}, fmt.Errorf("traits: store profile %d: %w", userID, err)
	}
	r.logger.Debug("traits refreshed", "user_id", userID, "sample_size", p.SampleSize)
	return p, nil
}

// RefreshAll refreshes every user active in [from, to) with bounded
// concurrency. Per-user failures are logged and joined; the others still
// complete. It returns the number of profiles stored.
func (r *Refresher) RefreshAll(ctx context.Context, from, to time.Time) (int, error) {
	users, err := r.log.ActiveUsers(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("traits: list active users: %w", err)
	}

	type result struct {
		ok  bool
		err error
	}
	results := make([]result, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i, uid := range users {
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i].err = gctx.Err()
				return nil
			}
			if _, err := r.Refresh(gctx, uid); err != nil {
				r.logger.Warn("traits refresh failed", "user_id", uid, "error", err)
				results[i].err = err
				return nil
			}
			results[i].ok = true
			return nil
		})
	}
	_ = g.Wait()

	var (
		done int
		errs []error
	)
	for _, res := range results {
		if res.ok {
			done++
		} else if res.err != nil {
			errs = append(errs, res.err)
		}
	}
	r.logger.Info("traits refresh finished", "users", len(users), "refreshed", done, "failed", len(errs))
	return done, errors.Join(errs...)
}

// sample renders rows (newest first) as lines, stopping at the token cap.
func (r *Refresher) sample(rows []message.Message) string {
	var (
		lines []string
		used  int
	)
	for _, m := range rows {
		line, ok := ctxengine.FormatLine(m, r.cfg.Location, 500)
		if !ok {
			continue
		}
		cost := r.counter.Count(line) + 1
		if used+cost > r.cfg.MaxTokens {
			break
		}
		used += cost
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
