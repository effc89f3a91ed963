package provider

import "errors"

// Sentinel errors for provider operations.
var (
	// ErrRejected indicates the backend refused to generate on safety grounds.
	// The degradation loop retries at a lower intensity.
	ErrRejected = errors.New("provider rejected request")

	// ErrProviderError is any technical failure: network, auth, quota,
	// timeouts, unparseable output. It is never retried across intensities.
	ErrProviderError = errors.New("provider error")

	// ErrRateLimit indicates the backend returned a rate limit response.
	ErrRateLimit = errors.New("provider rate limited")

	// ErrMalformedResponse indicates the response held no usable JSON object
	// even after fallback extraction, or it violated the contract schema.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrEmptyResult indicates valid JSON without the expected payload.
	ErrEmptyResult = errors.New("provider returned empty result")

	// ErrNoBackend indicates no backend is configured for the chat.
	ErrNoBackend = errors.New("no backend configured")
)

// IsRejected reports whether err is a safety rejection.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

// IsEmpty reports whether err is an empty result.
func IsEmpty(err error) bool {
	return errors.Is(err, ErrEmptyResult)
}

// IsRetryable reports whether a lower intensity may succeed where this
// attempt failed. Only rejections and empty results qualify.
func IsRetryable(err error) bool {
	return IsRejected(err) || IsEmpty(err)
}
