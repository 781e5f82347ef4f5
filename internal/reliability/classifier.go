package reliability

import (
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// IsRateLimitStatus classifies the retryable rate-limit HTTP status.
func IsRateLimitStatus(code int) bool {
	return code == 429
}

// IsRetryableModelError reports whether a text-model failure belongs to the
// rate-limit class. Only this class is retried; everything else is terminal.
func IsRetryableModelError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return IsRateLimitStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return IsRateLimitStatus(reqErr.HTTPStatusCode)
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "resource_exhausted")
}
