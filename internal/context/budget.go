package ctxengine

import "strings"

// TokenCounter returns the cost of a text fragment in model tokens.
// Implementations must be safe for concurrent use.
type TokenCounter interface {
	Count(text string) int
}

// CharEstimator estimates tokens using a simple characters-per-token ratio.
// It is the fallback when no BPE encoding is available.
type CharEstimator struct {
	CharsPerToken float64
}

// NewCharEstimator creates a CharEstimator with the given ratio.
// If charsPerToken is <= 0, defaults to 4.0 (English approximation).
func NewCharEstimator(charsPerToken float64) *CharEstimator {
	if charsPerToken <= 0 {
		charsPerToken = 4.0
	}
	return &CharEstimator{CharsPerToken: charsPerToken}
}

// Count returns the estimated token count for the given text.
func (e *CharEstimator) Count(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := float64(len(text)) / e.CharsPerToken
	// Always round up to avoid underestimation.
	return int(tokens) + 1
}

// PromptCost returns the cost of prompt parts joined by blank lines,
// the way the digest and reply prompts are assembled.
func PromptCost(counter TokenCounter, parts ...string) int {
	return counter.Count(strings.Join(parts, "\n\n"))
}

// Budget is the token allowance left for window rows once the static
// prompt overhead is reserved. It never goes below zero.
func Budget(maxTokens, overhead int) int {
	if b := maxTokens - overhead; b > 0 {
		return b
	}
	return 0
}
