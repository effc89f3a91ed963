package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// rejectionMarkers appear in backend error text when a safety filter blocked
// the request or the response.
var rejectionMarkers = []string{
	"content_filter",
	"content filter",
	"valid `part`",
	"valid part",
	"invalid part",
	"prohibited_content",
	"prohibited content",
	"blocked by safety",
	"response was blocked",
}

// finishReasonMarkers only count as a rejection alongside a safety word:
// "finish reason: MAX_TOKENS" is a technical failure.
var (
	finishReasonMarkers = []string{"finish_reason", "finish reason", "finishreason"}
	safetyWords         = []string{"safety", "blocklist", "prohibited", "spii", "content_filter", "content filter"}
)

// Classify maps a backend error onto the gateway taxonomy: ErrRejected or
// ErrProviderError. Errors a backend already classified pass through.
// Anything ambiguous is a ProviderError so it is not retried.
func Classify(backend string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrRejected) || errors.Is(err, ErrProviderError) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", ErrProviderError, backend, err)
	}
	if LooksRejected(err.Error()) {
		return fmt.Errorf("%w: %s: %w", ErrRejected, backend, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrProviderError, backend, err)
}

// LooksRejected is the best-effort substring heuristic over error text.
func LooksRejected(text string) bool {
	s := strings.ToLower(text)
	if containsAny(s, rejectionMarkers) {
		return true
	}
	return containsAny(s, finishReasonMarkers) && containsAny(s, safetyWords)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
