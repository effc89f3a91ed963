// Package render turns a digest result into the Telegram HTML message.
package render

import (
	"html"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/flemzord/chatdigest/pkg/message"
)

// DefaultMaxTopics caps the rendered topics when unset.
const DefaultMaxTopics = 7

// Renderer formats digests for one locale.
type Renderer struct {
	labels    Labels
	maxTopics int
	pick      func(n int) int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithPicker overrides the random choice of exhausted messages.
func WithPicker(pick func(n int) int) Option {
	return func(r *Renderer) { r.pick = pick }
}

// NewRenderer creates a renderer. A non-positive maxTopics uses
// DefaultMaxTopics.
func NewRenderer(labels Labels, maxTopics int, opts ...Option) *Renderer {
	if maxTopics <= 0 {
		maxTopics = DefaultMaxTopics
	}
	r := &Renderer{labels: labels, maxTopics: maxTopics, pick: rand.IntN}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Labels returns the locale strings.
func (r *Renderer) Labels() Labels { return r.labels }

// Header renders the bold digest header for a local date.
func (r *Renderer) Header(date time.Time) string {
	return r.header(date.Format("02.01.2006"))
}

func (r *Renderer) header(day string) string {
	return "<b>" + html.EscapeString(r.labels.Tag+" — "+day) + "</b>"
}

// Render formats res. rows are the window messages in ascending order; they
// decide which titles and initiators can be linked.
func (r *Renderer) Render(date time.Time, res DigestResult, rows []message.Message, chat ChatLinker, users UserLinker) string {
	byMID := make(map[int64]bool, len(rows))
	byUID := make(map[int64]message.Message)
	for _, m := range rows {
		byMID[m.ID] = true
		if _, ok := byUID[m.UserID]; !ok {
			byUID[m.UserID] = m
		}
	}

	topics := res.Topics
	if len(topics) > r.maxTopics {
		topics = topics[:r.maxTopics]
	}

	items := make([]string, 0, len(topics))
	for _, t := range topics {
		items = append(items, r.topic(t, byMID, byUID, chat, users))
	}

	header := r.Header(date)
	if len(items) == 0 {
		return header
	}
	return header + "\n\n" + strings.Join(items, "\n\n")
}

func (r *Renderer) topic(t Topic, byMID map[int64]bool, byUID map[int64]message.Message, chat ChatLinker, users UserLinker) string {
	title := message.CleanText(t.Title)
	if title == "" {
		title = r.labels.TopicFallback
	}
	titleHTML := html.EscapeString(title)
	if t.FirstMessageID.Valid && byMID[t.FirstMessageID.ID] && chat != nil {
		titleHTML = link(chat.MessageURL(t.FirstMessageID.ID), titleHTML)
	}

	var b strings.Builder
	b.WriteString("• ")
	b.WriteString(titleHTML)
	b.WriteString(" — ")
	b.WriteString(html.EscapeString(r.labels.Initiator))
	b.WriteString(" ")
	b.WriteString(r.initiator(t.InitiatorUserID, byUID, users))

	if summary := message.CleanText(t.Summary); summary != "" {
		b.WriteString("\n   ")
		b.WriteString(html.EscapeString(r.labels.Summary))
		b.WriteString(" ")
		b.WriteString(html.EscapeString(summary))
	}
	return b.String()
}

func (r *Renderer) initiator(uid OptionalID, byUID map[int64]message.Message, users UserLinker) string {
	fallback := html.EscapeString(r.labels.ParticipantFallback)
	if !uid.Valid {
		return fallback
	}
	row, ok := byUID[uid.ID]
	if !ok {
		return fallback
	}

	label := fallback
	switch {
	case message.CleanText(row.FullName) != "":
		label = html.EscapeString(message.CleanText(row.FullName))
	case row.Username != "":
		label = html.EscapeString("@" + row.Username)
	}
	if users == nil {
		return label
	}
	return link(users.UserURL(row.UserID, row.Username), label)
}

// Exhausted renders the header plus a random exhausted body.
func (r *Renderer) Exhausted(date time.Time) string {
	return r.withBody(r.Header(date), r.exhaustedBody())
}

// Failed renders the header plus the technical-failure body.
func (r *Renderer) Failed(date time.Time) string {
	return r.withBody(r.Header(date), r.labels.DigestFailed)
}

// Empty renders the "nothing yet" message for on-demand digests.
func (r *Renderer) Empty() string {
	return r.withBody(r.header(r.labels.Today), r.labels.DigestEmpty)
}

func (r *Renderer) exhaustedBody() string {
	bodies := r.labels.DigestExhausted
	if len(bodies) == 0 {
		return r.labels.DigestFailed
	}
	return bodies[r.pick(len(bodies))]
}

func (r *Renderer) withBody(header, body string) string {
	if body == "" {
		return header
	}
	return header + "\n\n" + body
}

func link(href, labelHTML string) string {
	return `<a href="` + html.EscapeString(href) + `">` + labelHTML + `</a>`
}
