package provider

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrorsAreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrRejected,
		ErrProviderError,
		ErrRateLimit,
		ErrMalformedResponse,
		ErrEmptyResult,
		ErrNoBackend,
	}

	for i, a := range sentinels {
		if a.Error() == "" {
			t.Fatalf("sentinel %d has an empty message", i)
		}
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %q should not match %q", a, b)
			}
		}
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rejected", ErrRejected, true},
		{"wrapped rejected", fmt.Errorf("gemini: %w", ErrRejected), true},
		{"empty", fmt.Errorf("x: %w", ErrEmptyResult), true},
		{"provider error", ErrProviderError, false},
		{"rate limit", fmt.Errorf("%w: %w", ErrProviderError, ErrRateLimit), false},
		{"malformed", fmt.Errorf("%w: %w", ErrProviderError, ErrMalformedResponse), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
