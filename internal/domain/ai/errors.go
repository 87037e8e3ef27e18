package ai

import "errors"

var (
	// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
	ErrQuotaExceeded = errors.New("ai quota exceeded")
	// ErrEmptyResponse indicates the provider answered without any text.
	ErrEmptyResponse = errors.New("ai returned empty response")
	// ErrNotConfigured indicates no usable credential is set.
	ErrNotConfigured = errors.New("ai credential not configured")
)

// PlaceholderKey is the sample key shipped in env templates; it counts as unset.
const PlaceholderKey = "your-gemini-api-key-here"

// Configured reports whether key is a usable credential
func Configured(key string) bool {
	return key != "" && key != PlaceholderKey
}
