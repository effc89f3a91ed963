package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"

	"github.com/flemzord/chatdigest/internal/provider"
)

// finishReasonContentFilter is reported when the output was withheld by
// the moderation layer.
const finishReasonContentFilter = "content_filter"

// rejectionCodes are API error codes for requests refused on policy grounds.
var rejectionCodes = map[string]bool{
	"content_filter":           true,
	"content_policy_violation": true,
}

// mapError maps an SDK error onto the provider taxonomy. Context errors and
// anything unrecognised pass through for provider.Classify.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case rejectionCodes[apiErr.Code]:
		return fmt.Errorf("%w: openai: %s", provider.ErrRejected, apiErr.Message)
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w: openai: %s", provider.ErrProviderError, provider.ErrRateLimit, apiErr.Message)
	default:
		return fmt.Errorf("%w: openai: HTTP %d: %s", provider.ErrProviderError, apiErr.StatusCode, apiErr.Message)
	}
}
