// Package bluesky adapts the indigo AT Protocol SDK to the calls the bot
// makes: session creation and deletion, listing the account's posts,
// uploading a blob and creating a post record. Every call goes through a
// circuit breaker, and writes through a token bucket.
package bluesky

import (
	"errors"
	"fmt"
	"time"

	"osrs-bluesky-bot/internal/resilience/retry"
)

var (
	// ErrSessionExpired indicates that the access token expired before the call.
	ErrSessionExpired = errors.New("session access token expired")

	// ErrSessionClosed indicates a call on a session that was already closed.
	ErrSessionClosed = errors.New("session closed")

	// ErrMalformedResponse indicates a 200 response that could not be decoded
	// or lacks required fields.
	ErrMalformedResponse = errors.New("malformed XRPC response")
)

// XRPCError is a non-200 XRPC response other than 429.
type XRPCError struct {
	StatusCode int
	// Name is the error name from the response body, e.g. "AuthenticationRequired".
	Name    string
	Message string
}

func (e *XRPCError) Error() string {
	switch {
	case e.Name != "" && e.Message != "":
		return fmt.Sprintf("XRPC %d: %s: %s", e.StatusCode, e.Name, e.Message)
	case e.Name != "":
		return fmt.Sprintf("XRPC %d: %s", e.StatusCode, e.Name)
	default:
		return fmt.Sprintf("XRPC %d: %s", e.StatusCode, e.Message)
	}
}

// Unwrap exposes the status code to retry.IsRetryable.
func (e *XRPCError) Unwrap() error {
	return &retry.HTTPError{StatusCode: e.StatusCode, Message: e.Message}
}

// RateLimitError represents a 429 response.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// Unwrap exposes the 429 status to retry.IsRetryable.
func (e *RateLimitError) Unwrap() error {
	return &retry.HTTPError{StatusCode: 429, Message: e.Message}
}
