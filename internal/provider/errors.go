package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// Kind classifies why a provider call failed
type Kind string

const (
	KindAuthExpired       Kind = "auth_expired"
	KindInsufficientScope Kind = "insufficient_scope"
	KindRateLimited       Kind = "rate_limited"
	KindProviderError     Kind = "provider_error"
	KindNetworkError      Kind = "network_error"
	KindTimeout           Kind = "timeout"
	KindUnexpected        Kind = "unexpected_error"
)

// maxBodyLen bounds how much of an upstream error body is kept
const maxBodyLen = 512

// Message returns a human-readable description of the failure kind
func (k Kind) Message() string {
	switch k {
	case KindAuthExpired:
		return "Authorization expired, please reconnect"
	case KindInsufficientScope:
		return "Missing permission to read activities, please reconnect and grant access"
	case KindRateLimited:
		return "Rate limit reached, try again later"
	case KindProviderError:
		return "The provider returned an error, try again later"
	case KindNetworkError:
		return "Could not reach the provider"
	case KindTimeout:
		return "The provider took too long to respond"
	default:
		return "Unexpected error while loading activities"
	}
}

// Retryable reports whether trying again later may succeed without the
// user reconnecting.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimited, KindProviderError, KindNetworkError, KindTimeout:
		return true
	}
	return false
}

// Error is a classified provider failure
type Error struct {
	Kind       Kind
	Provider   ID
	Op         string
	StatusCode int
	Body       string
	RateLimit  *RateLimit
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Provider, e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	} else if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from err. Errors that were never
// classified are reported as unexpected.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindUnexpected
}

// IsAuthExpired checks if err is an expired or revoked authorization
func IsAuthExpired(err error) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Kind == KindAuthExpired
}

// IsRateLimited checks if err is a rate limit rejection
func IsRateLimited(err error) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Kind == KindRateLimited
}

// ClassifyStatus maps a non-2xx response to an Error. It returns nil for
// success statuses. Checks run in priority order before any body parsing.
func ClassifyStatus(id ID, op string, status int, header http.Header, body []byte) *Error {
	if status >= 200 && status < 300 {
		return nil
	}

	e := &Error{Provider: id, Op: op, StatusCode: status, Body: truncate(string(body))}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindAuthExpired
	case status == http.StatusForbidden:
		e.Kind = KindInsufficientScope
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.RateLimit = ParseRateLimitHeaders(header)
	default:
		e.Kind = KindProviderError
	}
	return e
}

// ClassifyTransport maps an error from http.Client.Do to an Error
func ClassifyTransport(id ID, op string, err error) *Error {
	e := &Error{Provider: id, Op: op, Err: err}

	var netErr net.Error
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.Canceled):
		e.Kind = KindUnexpected
	case errors.Is(err, context.DeadlineExceeded):
		e.Kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		e.Kind = KindTimeout
	case errors.As(err, &netErr), errors.As(err, &urlErr):
		e.Kind = KindNetworkError
	default:
		e.Kind = KindUnexpected
	}
	return e
}

// Unexpected wraps err as an unexpected failure
func Unexpected(id ID, op string, err error) *Error {
	return &Error{Kind: KindUnexpected, Provider: id, Op: op, Err: err}
}

func truncate(s string) string {
	if len(s) <= maxBodyLen {
		return s
	}
	return s[:maxBodyLen] + "..."
}
