package hibp

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnauthorized is returned when the API rejects the key (401/403).
	ErrUnauthorized = errors.New("hibp: unauthorized, invalid or missing API key")

	// ErrNotFound is returned when a single-object lookup has no result.
	// Account-centric list endpoints translate it to an empty slice instead.
	ErrNotFound = errors.New("hibp: not found")
)

// RateLimitError is returned when the API still answers 429 after the
// client already waited once on the server's retry hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("hibp: rate limited by server, retry after %s", e.RetryAfter)
}

// StatusError is returned for any other non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hibp: API request failed with status %d", e.StatusCode)
}

// ProtocolError is returned when the response violates the expected wire
// format in a way that cannot be skipped, e.g. the range line carrying the
// searched hash suffix has no parsable count.
type ProtocolError struct {
	Line string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("hibp: malformed response line %q", e.Line)
}
