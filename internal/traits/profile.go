// Package traits keeps a per-user communication profile and appends a
// compact summary of it to reply prompts.
package traits

import (
	"context"
	"math"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/flemzord/chatdigest/internal/provider"
)

// Version tags profiles produced by the current prompt.
const Version = "v1-llm-500"

// Profile is a user's communication profile. Scores are in [0, 1].
type Profile struct {
	Version    string    `json:"version"`
	Summary    string    `json:"summary"`
	Topics     []Topic   `json:"topics"`
	Tone       Tone      `json:"tone"`
	Style      Style     `json:"style"`
	Activity   Activity  `json:"activity"`
	Language   Language  `json:"language"`
	SampleSize int       `json:"sample_size"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Topic is an interest with its weight.
type Topic struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Tone is the baseline attitude.
type Tone struct {
	Friendliness float64 `json:"friendliness"`
	Sarcasm      float64 `json:"sarcasm"`
	Toxicity     float64 `json:"toxicity"`
	Confidence   float64 `json:"confidence"`
}

// Style describes message shape.
type Style struct {
	Verbosity  float64 `json:"verbosity"`
	EmojiUsage float64 `json:"emoji_usage"`
	Confidence float64 `json:"confidence"`
}

// Activity holds the usual active hours.
type Activity struct {
	HoursUTC   []int   `json:"hours_utc"`
	Confidence float64 `json:"confidence"`
}

// Language is the preferred language.
type Language struct {
	Primary    string  `json:"primary"`
	Notes      string  `json:"notes"`
	Confidence float64 `json:"confidence"`
}

// Normalize clamps every score to [0, 1], drops unnamed topics and
// out-of-range hours.
func (p *Profile) Normalize() {
	topics := p.Topics[:0]
	for _, t := range p.Topics {
		if t.Name == "" {
			continue
		}
		t.Score = clamp01(t.Score)
		topics = append(topics, t)
	}
	p.Topics = topics

	p.Tone.Friendliness = clamp01(p.Tone.Friendliness)
	p.Tone.Sarcasm = clamp01(p.Tone.Sarcasm)
	p.Tone.Toxicity = clamp01(p.Tone.Toxicity)
	p.Tone.Confidence = clamp01(p.Tone.Confidence)
	p.Style.Verbosity = clamp01(p.Style.Verbosity)
	p.Style.EmojiUsage = clamp01(p.Style.EmojiUsage)
	p.Style.Confidence = clamp01(p.Style.Confidence)
	p.Activity.Confidence = clamp01(p.Activity.Confidence)
	p.Language.Confidence = clamp01(p.Language.Confidence)

	hours := p.Activity.HoursUTC[:0]
	for _, h := range p.Activity.HoursUTC {
		if h >= 0 && h < 24 {
			hours = append(hours, h)
		}
	}
	p.Activity.HoursUTC = hours
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), 1)
}

// Store persists profiles.
type Store interface {
	// Get returns the profile; ok is false when none is stored.
	Get(ctx context.Context, userID int64) (p Profile, ok bool, err error)
	Put(ctx context.Context, userID int64, p Profile) error
}

// Contract is the structured-output contract for profile requests.
var Contract = provider.MustContract("traits", "summary",
	provider.ObjectSchema(map[string]*jsonschema.Schema{
		"summary": provider.StringSchema("1-2 sentences describing the user"),
		"topics": provider.ArraySchema(provider.ObjectSchema(map[string]*jsonschema.Schema{
			"name":  provider.StringSchema("interest"),
			"score": provider.NumberSchema("weight between 0 and 1"),
		})),
		"tone": provider.ObjectSchema(map[string]*jsonschema.Schema{
			"friendliness": provider.NumberSchema(""),
			"sarcasm":      provider.NumberSchema(""),
			"toxicity":     provider.NumberSchema(""),
			"confidence":   provider.NumberSchema(""),
		}),
		"style": provider.ObjectSchema(map[string]*jsonschema.Schema{
			"verbosity":   provider.NumberSchema(""),
			"emoji_usage": provider.NumberSchema(""),
			"confidence":  provider.NumberSchema(""),
		}),
		"activity": provider.ObjectSchema(map[string]*jsonschema.Schema{
			"hours_utc":  provider.ArraySchema(&jsonschema.Schema{Type: "integer"}),
			"confidence": provider.NumberSchema(""),
		}),
		"language": provider.ObjectSchema(map[string]*jsonschema.Schema{
			"primary":    provider.StringSchema("uk, en, mixed or other"),
			"notes":      provider.StringSchema(""),
			"confidence": provider.NumberSchema(""),
		}),
	}, "summary"))
