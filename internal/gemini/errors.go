package gemini

import (
	"context"
	"errors"
	"fmt"
)

// ===== ERROR TYPES =====

var (
	// ErrNoAPIKey is returned when a client is constructed without a key.
	ErrNoAPIKey = errors.New("gemini: API key not configured")

	// ErrEmptyResponse is returned when the API answers 200 with no
	// candidate text to extract.
	ErrEmptyResponse = errors.New("gemini: empty response from API")

	// ErrChainExhausted is returned when the primary model and every
	// fallback in its chain failed.
	ErrChainExhausted = errors.New("gemini: all models in fallback chain failed")
)

// APIError is a non-200 answer from the Generative Language API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gemini: API error %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini: API error %d (%s)", e.StatusCode, e.Status)
}

// Retryable reports whether the same request may succeed on a later
// attempt: rate limiting and server-side failures qualify, other client
// errors do not.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// DecodeError means the model answered but the text could not be decoded
// as the expected JSON even after sanitization. Head carries the start of
// the sanitized payload for logging.
type DecodeError struct {
	Model string
	Head  string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("gemini: decode response from %s: %v (payload starts %q)", e.Model, e.Err, e.Head)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// retryable classifies an attempt error: network-level failures and
// retryable API statuses are worth another attempt against the same
// model; anything else fails fast to the next model in the chain.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	// Transport errors (connection reset, timeout, DNS) have no status
	// code and are treated as transient.
	var decodeErr *DecodeError
	return !errors.As(err, &decodeErr) && !errors.Is(err, ErrEmptyResponse)
}
