package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"

	"github.com/flemzord/chatdigest/internal/provider"
)

// rejectedFinishReasons end a candidate on safety grounds.
var rejectedFinishReasons = map[genai.FinishReason]bool{
	genai.FinishReasonSafety:            true,
	genai.FinishReasonBlocklist:         true,
	genai.FinishReasonProhibitedContent: true,
	genai.FinishReasonSPII:              true,
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

	var gaxErr *apierror.APIError
	if errors.As(err, &gaxErr) {
		return statusError(gaxErr.HTTPCode(), gaxErr.Error())
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusError(apiErr.Code, apiErr.Message)
	}
	return err
}

func statusError(code int, msg string) error {
	if code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w: gemini: %s", provider.ErrProviderError, provider.ErrRateLimit, msg)
	}
	if provider.LooksRejected(msg) {
		return fmt.Errorf("%w: gemini: %s", provider.ErrRejected, msg)
	}
	return fmt.Errorf("%w: gemini: HTTP %d: %s", provider.ErrProviderError, code, msg)
}

// checkResponse reports a prompt block or a safety finish as ErrRejected.
func checkResponse(resp *genai.GenerateContentResponse) error {
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return fmt.Errorf("%w: gemini: prompt blocked: %s", provider.ErrRejected, fb.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("%w: gemini: no candidates", provider.ErrProviderError)
	}
	c := resp.Candidates[0]
	if rejectedFinishReasons[c.FinishReason] {
		return fmt.Errorf("%w: gemini: finish reason %s", provider.ErrRejected, c.FinishReason)
	}
	return nil
}
