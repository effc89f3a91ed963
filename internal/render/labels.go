package render

import "strings"

// Labels holds the user-facing strings of one locale. Strings that end up
// in HTML messages are already valid HTML.
type Labels struct {
	// Tag opens the digest header, for example "#Daily_digest".
	Tag string

	TopicFallback       string
	ParticipantFallback string
	Initiator           string
	Summary             string

	// DigestEmpty is the body posted by /summary_now when nothing qualified.
	DigestEmpty string
	// DigestExhausted bodies are picked at random below the header.
	DigestExhausted []string
	DigestFailed    string
	// Today stands in for the date on on-demand digests.
	Today string

	ReplyNothing   string
	ReplyExhausted string
	ReplyFailed    string

	// QuotaExceeded is formatted with the daily limit.
	QuotaExceeded string
	// QuotaHint is formatted with the remaining count.
	QuotaHint string

	SummariesEnabled  string
	SummariesDisabled string
	StatusEnabled     string
	StatusDisabled    string
	Working           string
}

// English labels.
var English = Labels{
	Tag:                 "#Daily_digest",
	TopicFallback:       "Topic",
	ParticipantFallback: "Participant",
	Initiator:           "started by",
	Summary:             "In short:",
	DigestEmpty:         "No data yet, or nothing grouped into topics.",
	DigestExhausted: []string{
		"🤖 Oops! The model decided your messages are too toxic for its delicate nature and refused to read them.\n\n😅 Try <code>/summary_now 0</code> for a friendlier style, or wait until tomorrow.",
		"🛡️ The model switched on its toxicity shield. Apparently today was especially explosive.\n\n🙃 Try <code>/summary_now 0</code> for a softer take.",
		"🚫 The model went on strike: \"I will not analyse this level of toxicity.\"\n\n😏 Lower the heat with <code>/summary_now 0</code>.",
	},
	DigestFailed:      "⚠️ Could not build the digest right now. Please try again later.",
	Today:             "today",
	ReplyNothing:      "I have nothing to go on yet.",
	ReplyExhausted:    "🛡️ The model refused to answer that, even politely.",
	ReplyFailed:       "⚠️ Something went wrong. Try again later.",
	QuotaExceeded:     "You have reached the daily limit of %d replies. Come back tomorrow.",
	QuotaHint:         "(%d left today)",
	SummariesEnabled:  "✅ Daily summaries enabled for this chat.",
	SummariesDisabled: "🚫 Daily summaries disabled for this chat.",
	StatusEnabled:     "Status: ENABLED ✅ for this chat.",
	StatusDisabled:    "Status: DISABLED 🚫 for this chat.",
	Working:           "⏳ Working on it…",
}

// Ukrainian labels.
var Ukrainian = Labels{
	Tag:                 "#Підсумки_дня",
	TopicFallback:       "Тема",
	ParticipantFallback: "Учасник",
	Initiator:           "ініціатор",
	Summary:             "Коротко:",
	DigestEmpty:         "Поки що немає даних або нічого не згрупувалося.",
	DigestExhausted: []string{
		"🤖 Ой, вибачте! Наш штучний розум вирішив, що ваші повідомлення занадто токсичні для його ніжної природи і відмовився їх аналізувати.\n\n😅 Спробуйте пізніше з командою <code>/summary_now 0</code> для більш дружелюбного стилю, або просто зачекайте до завтра.",
		"🛡️ Штучний інтелект активував режим \"захист від токсичності\" і відмовляється читати ваші повідомлення. Видимо, ви сьогодні були особливо \"вибуховими\"!\n\n🙃 Рекомендую спробувати <code>/summary_now 0</code> для більш м'якого підходу.",
		"🚫 Штучний інтелект застрайкував: \"Я не буду аналізувати цей рівень токсичності!\"\n\n😏 Спробуйте знизити градус командою <code>/summary_now 0</code>.",
	},
	DigestFailed:      "⚠️ Не вдалося зібрати підсумки. Спробуйте пізніше.",
	Today:             "сьогодні",
	ReplyNothing:      "Мені поки нема за що зачепитися.",
	ReplyExhausted:    "🛡️ Модель відмовилася відповідати навіть ввічливо.",
	ReplyFailed:       "⚠️ Щось пішло не так. Спробуйте пізніше.",
	QuotaExceeded:     "Досягнуто денне обмеження: %d відповідей. Повертайтеся завтра.",
	QuotaHint:         "(сьогодні залишилось: %d)",
	SummariesEnabled:  "✅ Щоденні підсумки увімкнено для цього чату.",
	SummariesDisabled: "🚫 Щоденні підсумки вимкнено для цього чату.",
	StatusEnabled:     "Статус: УВІМКНЕНО ✅ для цього чату.",
	StatusDisabled:    "Статус: ВИМКНЕНО 🚫 для цього чату.",
	Working:           "⏳ Збираю підсумки…",
}

// LabelsFor returns the preset for locale ("en", "uk"). Unknown locales
// fall back to English.
func LabelsFor(locale string) Labels {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "uk", "ua", "uk-ua":
		return Ukrainian
	default:
		return English
	}
}
