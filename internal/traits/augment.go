package traits

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/flemzord/chatdigest/internal/provider"
)

// maxSummaryTopics caps the interests listed by Summarize.
const maxSummaryTopics = 5

// Augmenter appends a user's profile line to a prompt.
type Augmenter struct {
	store  Store
	logger *slog.Logger
}

// NewAugmenter creates an augmenter. A nil logger discards.
func NewAugmenter(store Store, logger *slog.Logger) *Augmenter {
	if logger == nil {
		logger = provider.NopLogger()
	}
	return &Augmenter{store: store, logger: logger}
}

// Augment returns base with the profile line of userID appended. It
// returns base unchanged when there is no profile or the store fails.
func (a *Augmenter) Augment(ctx context.Context, base string, userID int64) string {
	if a == nil || a.store == nil || userID <= 0 {
		return base
	}
	p, ok, err := a.store.Get(ctx, userID)
	if err != nil {
		a.logger.Warn("traits lookup failed", "user_id", userID, "error", err)
		return base
	}
	if !ok {
		return base
	}
	line := Summarize(p)
	if line == "" {
		return base
	}
	return base + "\n\n" + line
}

// Summarize renders p as one compact line, or "" when p holds nothing.
func Summarize(p Profile) string {
	var parts []string

	topics := slices.Clone(p.Topics)
	slices.SortStableFunc(topics, func(a, b Topic) int { return cmp.Compare(b.Score, a.Score) })
	names := make([]string, 0, maxSummaryTopics)
	for _, t := range topics {
		if len(names) == maxSummaryTopics {
			break
		}
		if t.Name != "" {
			names = append(names, t.Name)
		}
	}
	if len(names) > 0 {
		parts = append(parts, "interests="+strings.Join(names, ", "))
	}

	if p.Tone != (Tone{}) {
		parts = append(parts, fmt.Sprintf("tone friendliness=%s sarcasm=%s toxicity=%s",
			score(p.Tone.Friendliness), score(p.Tone.Sarcasm), score(p.Tone.Toxicity)))
	}
	if p.Style.Verbosity > 0 {
		parts = append(parts, "verbosity="+score(p.Style.Verbosity))
	}
	if p.Style.EmojiUsage > 0 {
		parts = append(parts, "emoji="+score(p.Style.EmojiUsage))
	}
	if p.Language.Primary != "" {
		parts = append(parts, "language="+p.Language.Primary)
	}

	if len(parts) == 0 {
		return ""
	}
	return "User profile: " + strings.Join(parts, "; ")
}

func score(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
