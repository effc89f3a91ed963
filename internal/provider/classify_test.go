package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		err          error
		wantRejected bool
	}{
		{"gemini invalid part", errors.New("The `response.text` quick accessor requires the response to contain a valid `Part`"), true},
		{"openai content filter", errors.New("finish_reason=content_filter"), true},
		{"finish reason with safety", errors.New("unexpected finish reason: SAFETY"), true},
		{"finish reason max tokens", errors.New("unexpected finish reason: MAX_TOKENS"), false},
		{"network", errors.New("dial tcp: connection refused"), false},
		{"auth", errors.New("401 Unauthorized: invalid api key"), false},
		{"deadline", fmt.Errorf("request: %w", context.DeadlineExceeded), false},
		{"deadline mentioning filter", fmt.Errorf("content filter: %w", context.Canceled), false},
		{"typed rejection passes", fmt.Errorf("openai: refusal: %w", ErrRejected), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Classify("test", tt.err)
			if IsRejected(got) != tt.wantRejected {
				t.Errorf("Classify(%v) rejected = %v, want %v", tt.err, IsRejected(got), tt.wantRejected)
			}
			if !tt.wantRejected && !errors.Is(got, ErrProviderError) {
				t.Errorf("Classify(%v) = %v, want ErrProviderError", tt.err, got)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("Classify must keep the cause in the chain")
			}
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	t.Parallel()

	if Classify("x", nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}
