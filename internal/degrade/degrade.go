// Package degrade runs a generation attempt at decreasing intensity levels
// until the backend accepts one. Safety rejections and empty results step
// the level down; any other failure stops the loop.
package degrade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flemzord/chatdigest/internal/provider"
)

// ErrExhausted is returned in Result.Err when level 0 was rejected too.
var ErrExhausted = errors.New("degrade: all intensity levels rejected")

// Outcome is the terminal state of a run.
type Outcome int

const (
	// Done means one level produced a payload.
	Done Outcome = iota
	// Exhausted means every level down to 0 was rejected or empty.
	Exhausted
	// Failed means a technical error stopped the run.
	Failed
)

// String returns the outcome name used in logs and metric labels.
func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case Exhausted:
		return "exhausted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Attempt is one backend call at one level.
type Attempt struct {
	Level int
	Err   error
}

// Result is the outcome of Run.
type Result[T any] struct {
	Outcome   Outcome
	Requested int

	// Level is the level that succeeded for Done, the last level tried
	// otherwise.
	Level    int
	Payload  T
	Attempts []Attempt

	// Err is ErrExhausted for Exhausted and the stopping error for Failed.
	Err error
}

// Hook observes attempts and final results.
type Hook interface {
	ObserveAttempt(op string, level int, outcome string)
	ObserveResult(op string, outcome Outcome, level int)
}

// Controller holds the level range and observers for one call site.
type Controller struct {
	op       string
	maxLevel int
	logger   *slog.Logger
	hook     Hook
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithHook sets the attempt observer.
func WithHook(h Hook) Option {
	return func(c *Controller) { c.hook = h }
}

// NewController creates a controller for op ("digest", "reply") whose
// levels range over [0, maxLevel].
func NewController(op string, maxLevel int, opts ...Option) *Controller {
	c := &Controller{op: op, maxLevel: max(maxLevel, 0)}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = provider.NopLogger()
	}
	return c
}

// Clamp limits level to the controller range.
func (c *Controller) Clamp(level int) int {
	return min(max(level, 0), c.maxLevel)
}

// Max returns the highest level.
func (c *Controller) Max() int { return c.maxLevel }

// Run calls attempt once per level, starting at requested and stepping down
// while the error is a rejection or an empty result. Calls are sequential.
func Run[T any](ctx context.Context, c *Controller, requested int, attempt func(ctx context.Context, level int) (T, error)) Result[T] {
	res := Result[T]{Requested: c.Clamp(requested)}

	for level := res.Requested; level >= 0; level-- {
		if err := ctx.Err(); err != nil {
			res.Level = level
			res.Outcome = Failed
			res.Err = fmt.Errorf("%w: %w", provider.ErrProviderError, err)
			break
		}

		payload, err := attempt(ctx, level)
		res.Attempts = append(res.Attempts, Attempt{Level: level, Err: err})
		res.Level = level
		c.observeAttempt(level, err)

		if err == nil {
			res.Outcome = Done
			res.Payload = payload
			break
		}
		if !provider.IsRetryable(err) {
			res.Outcome = Failed
			res.Err = err
			break
		}
		if level == 0 {
			res.Outcome = Exhausted
			res.Err = ErrExhausted
		}
	}

	if c.hook != nil {
		c.hook.ObserveResult(c.op, res.Outcome, res.Level)
	}
	return res
}

func (c *Controller) observeAttempt(level int, err error) {
	outcome := provider.OutcomeOf(err)
	if err != nil && provider.IsRetryable(err) {
		c.logger.Warn("attempt refused, lowering intensity",
			"op", c.op, "level", level, "outcome", outcome, "error", err)
	} else {
		c.logger.Debug("attempt finished",
			"op", c.op, "level", level, "outcome", outcome)
	}
	if c.hook != nil {
		c.hook.ObserveAttempt(c.op, level, outcome)
	}
}
