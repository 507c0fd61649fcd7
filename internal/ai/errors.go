package ai

import (
	"errors"
	"fmt"
	"time"
)

// Classified provider responses. Each wraps the decoded *APIError, so
// errors.As works for either the class or the raw response.

type AuthError struct{ *APIError }

func (e *AuthError) Error() string { return e.explain("credential rejected") }

// RateLimitError carries the provider's Retry-After hint. Nothing retries
// on it; the hint is only shown to the user.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return e.explain(fmt.Sprintf("throttled by provider (retry after %s)", e.RetryAfter.Round(time.Second)))
	}
	return e.explain("throttled by provider")
}

type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string { return e.explain("unknown completion model") }

type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return e.explain("completion request refused") }

// QuotaExceededError is a billing or credit limit, as opposed to throttling.
type QuotaExceededError struct{ *APIError }

func (e *QuotaExceededError) Error() string { return e.explain("account quota exhausted") }

type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return e.explain("provider failed") }

// UnreachableError is a transport failure before any response arrived.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "completion endpoint unreachable"
	}
	if e.Host == "" {
		return fmt.Sprintf("completion endpoint unreachable: %v", e.Err)
	}
	return fmt.Sprintf("completion endpoint %s unreachable: %v", e.Host, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// StatusCode reports the HTTP status carried by err, or 0 when err is not
// a provider response.
func StatusCode(err error) int {
	type coder interface{ statusCode() int }
	var c coder
	if errors.As(err, &c) {
		return c.statusCode()
	}
	return 0
}

func (e *APIError) statusCode() int { return e.StatusCode }

// explain prefixes the raw response summary with a class description.
func (e *APIError) explain(class string) string {
	if e == nil {
		return class
	}
	return class + ": " + e.Error()
}
