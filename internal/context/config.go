// Package ctxengine builds token-bounded context windows from the chat log:
// token counting, row selection, and line rendering.
package ctxengine

import "time"

// WindowConfig holds the tuning knobs for the window builder.
type WindowConfig struct {
	// MaxCandidates caps how many rows one build fetches from the log.
	MaxCandidates int

	// MaxLineChars caps the message text rendered per line, in runes.
	MaxLineChars int

	// Location renders line timestamps. Defaults to UTC.
	Location *time.Location
}

// withDefaults returns a copy of cfg with zero-valued fields replaced by
// sensible defaults.
func (cfg WindowConfig) withDefaults() WindowConfig {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 5000
	}
	if cfg.MaxLineChars <= 0 {
		cfg.MaxLineChars = 500
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return cfg
}
