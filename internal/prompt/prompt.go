// Package prompt builds the instruction text sent to the backends. Every
// builder is deterministic so callers can cost the static part once and
// reserve it from the token budget.
package prompt

import (
	"fmt"
	"strings"
)

// DigestSystem is the system instruction for digest requests.
const DigestSystem = "You are a sarcastic, sharp-tongued assistant that groups a day of chat messages into topics. Always answer in JSON."

// ReplySystem is the system instruction for reply requests.
const ReplySystem = "You are a member of a group chat who answers when addressed. Always answer in JSON."

// TraitsSystem is the system instruction for trait profile requests.
const TraitsSystem = "You analyse a user's chat messages and describe their communication style. Always answer in JSON."

// Digest configures the digest instructions.
type Digest struct {
	Level     int
	MaxTopics int
	Language  string
}

// Instructions renders the static part of the digest prompt.
func (d Digest) Instructions() string {
	maxTopics := max(d.MaxTopics, 2)

	var b strings.Builder
	b.WriteString("You group the messages of a chat into topics for one calendar day.\n\n")
	b.WriteString("Task:\n")
	fmt.Fprintf(&b, "1) Cluster the messages into 2-%d topics.\n", maxTopics)
	b.WriteString("2) For each topic give:\n")
	b.WriteString("   - short_title: at most 7 words, a meaningful name\n")
	b.WriteString("   - first_message_id: the mid of the earliest message of the topic\n")
	b.WriteString("   - initiator_user_id: the uid of the author of that message\n")
	b.WriteString("   - summary: 1-3 sentences with a comment in the required style\n")
	b.WriteString("3) Return exactly this JSON shape:\n")
	b.WriteString(`{"topics": [{"short_title": "...", "first_message_id": 123, "initiator_user_id": 456, "summary": "..."}]}`)
	b.WriteString("\n\nNotes:\n")
	b.WriteString("- Reply chains usually mark a topic; merge the rest by meaning.\n")
	b.WriteString("- Ignore service messages and stickers that add nothing.\n")
	writeLanguage(&b, d.Language, "Write every title and summary")
	b.WriteString("\n")
	b.WriteString(Style(d.Level))
	return b.String()
}

// Prompt renders the full digest prompt around the window text.
func (d Digest) Prompt(window string) string {
	return d.Instructions() + "\n\nThe messages of the day, one per line:\n" + window
}

// Reply configures the reply instructions.
type Reply struct {
	Level    int
	Language string

	// Asker is the display name of the user who triggered the reply.
	Asker string

	// Question is the triggering message text.
	Question string

	// Thread holds the formatted reply chain above the question, oldest
	// first. The question itself is not part of it.
	Thread []string
}

// Instructions renders the static part of the reply prompt.
func (r Reply) Instructions() string {
	var b strings.Builder
	b.WriteString("You are addressed in a group chat. Answer the last message below in one short reply.\n")
	b.WriteString(`Return exactly this JSON shape: {"response": "..."}`)
	b.WriteString("\n")
	writeLanguage(&b, r.Language, "Write the reply")
	b.WriteString("\n")
	b.WriteString(Style(r.Level))

	if len(r.Thread) > 0 {
		b.WriteString("\n\nThe conversation thread you are answering in:\n")
		b.WriteString(strings.Join(r.Thread, "\n"))
	}

	fmt.Fprintf(&b, "\n\nMessage from %s:\n%s", r.Asker, r.Question)
	return b.String()
}

// Prompt renders the full reply prompt with the recent chat context.
func (r Reply) Prompt(window string) string {
	return WithContext(r.Instructions(), window)
}

// ContextHeader introduces the chat context below reply instructions.
const ContextHeader = "Recent chat messages for context, one per line:"

// WithContext appends the recent chat context to reply instructions that
// may have been augmented after rendering.
func WithContext(instructions, window string) string {
	if window == "" {
		return instructions
	}
	return instructions + "\n\n" + ContextHeader + "\n" + window
}

// Traits renders the trait-profile prompt for a sample of one user's
// messages, newest first.
func Traits(sample string) string {
	var b strings.Builder
	b.WriteString("Below are recent messages written by one chat user. Describe how they communicate.\n")
	b.WriteString("Return exactly this JSON shape with every score between 0 and 1:\n")
	b.WriteString(`{"summary": "...", "topics": [{"name": "...", "score": 0.5}], `)
	b.WriteString(`"tone": {"friendliness": 0.5, "sarcasm": 0.5, "toxicity": 0.5, "confidence": 0.5}, `)
	b.WriteString(`"style": {"verbosity": 0.5, "emoji_usage": 0.5, "confidence": 0.5}, `)
	b.WriteString(`"activity": {"hours_utc": [12, 18], "confidence": 0.5}, `)
	b.WriteString(`"language": {"primary": "uk", "notes": "...", "confidence": 0.5}}`)
	b.WriteString("\nIf there is little data, still return valid JSON with low confidence.")
	b.WriteString("\n\nMessages, newest first:\n")
	b.WriteString(sample)
	return b.String()
}

func writeLanguage(b *strings.Builder, language, what string) {
	if language == "" {
		return
	}
	fmt.Fprintf(b, "- %s in %s.\n", what, language)
}
