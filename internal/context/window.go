package ctxengine

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/flemzord/chatdigest/pkg/message"
)

// Source is the subset of chatlog.Log the builder reads from.
type Source interface {
	Recent(ctx context.Context, chatID int64, from, before time.Time, limit int) ([]message.Message, error)
}

// WindowRequest describes one window build.
type WindowRequest struct {
	ChatID int64

	// From and To bound the rows: From <= Time < To. A zero From means
	// no lower bound.
	From time.Time
	To   time.Time

	// ExcludeID drops the triggering message from its own window.
	ExcludeID int64

	// MaxTokens is the absolute ceiling for the whole prompt.
	MaxTokens int

	// Overhead is the cost of the static prompt that will wrap the window.
	Overhead int
}

// Lookback returns the [anchor-d, anchor) range used by the reply path.
func Lookback(anchor time.Time, d time.Duration) (from, to time.Time) {
	return anchor.Add(-d), anchor
}

// Window is the rendered, token-bounded slice of chat history.
type Window struct {
	Text       string
	Messages   []message.Message // chronological
	Tokens     int
	Budget     int
	Candidates int
}

// Empty reports whether the window holds no rows.
func (w Window) Empty() bool {
	return w.Text == ""
}

// Builder selects log rows and renders them within a token budget.
type Builder struct {
	source  Source
	counter TokenCounter
	cfg     WindowConfig
	sepCost int
}

// NewBuilder creates a window builder sharing one token counter.
func NewBuilder(source Source, counter TokenCounter, cfg WindowConfig) *Builder {
	return &Builder{
		source:  source,
		counter: counter,
		cfg:     cfg.withDefaults(),
		sepCost: counter.Count("\n"),
	}
}

// Counter returns the shared token counter.
func (b *Builder) Counter() TokenCounter {
	return b.counter
}

// Build fetches candidates newest first, accepts lines from the most recent
// backward until the next one would overflow the budget, and returns them in
// chronological order.
func (b *Builder) Build(ctx context.Context, req WindowRequest) (Window, error) {
	budget := Budget(req.MaxTokens, req.Overhead)

	rows, err := b.source.Recent(ctx, req.ChatID, req.From, req.To, b.cfg.MaxCandidates)
	if err != nil {
		return Window{}, fmt.Errorf("ctxengine: fetch window rows: %w", err)
	}

	w := Window{Budget: budget, Candidates: len(rows)}
	if budget == 0 {
		return w, nil
	}

	var (
		lines    []string
		accepted []message.Message
		used     int
	)
	for _, m := range rows {
		if req.ExcludeID != 0 && m.ID == req.ExcludeID {
			continue
		}
		line, ok := b.FormatLine(m)
		if !ok {
			continue
		}
		cost := b.counter.Count(line) + b.sepCost
		if used+cost > budget {
			break
		}
		used += cost
		lines = append(lines, line)
		accepted = append(accepted, m)
	}

	slices.Reverse(lines)
	slices.Reverse(accepted)

	// BPE costs are not strictly additive across line joins; drop the
	// oldest lines until the joined text itself fits.
	text := strings.Join(lines, "\n")
	tokens := b.counter.Count(text)
	for len(lines) > 0 && tokens > budget {
		lines = lines[1:]
		accepted = accepted[1:]
		text = strings.Join(lines, "\n")
		tokens = b.counter.Count(text)
	}

	w.Text = text
	w.Messages = accepted
	w.Tokens = tokens
	return w, nil
}

// FormatLine renders one row. It reports false for rows whose text is
// empty after cleaning.
func (b *Builder) FormatLine(m message.Message) (string, bool) {
	return FormatLine(m, b.cfg.Location, b.cfg.MaxLineChars)
}

// FormatLine renders m as
// "[HH:MM] name (uid=U, mid=M, reply_to=R): text" in loc.
func FormatLine(m message.Message, loc *time.Location, maxChars int) (string, bool) {
	text := message.Truncate(message.CleanText(m.Text), maxChars)
	if text == "" {
		return "", false
	}
	if loc == nil {
		loc = time.UTC
	}

	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(m.Time.In(loc).Format("15:04"))
	sb.WriteString("] ")
	sb.WriteString(message.CleanText(m.DisplayName()))
	fmt.Fprintf(&sb, " (uid=%d, mid=%d", m.UserID, m.ID)
	if m.ReplyToID != 0 {
		fmt.Fprintf(&sb, ", reply_to=%d", m.ReplyToID)
	}
	sb.WriteString("): ")
	sb.WriteString(text)
	return sb.String(), true
}
