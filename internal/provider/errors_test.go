package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusUnauthorized, KindAuthExpired},
		{http.StatusForbidden, KindInsufficientScope},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusNotFound, KindProviderError},
		{http.StatusInternalServerError, KindProviderError},
		{http.StatusBadGateway, KindProviderError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := ClassifyStatus(Strava, "op", tt.status, http.Header{}, []byte("boom"))
			require.NotNil(t, err)
			assert.Equal(t, tt.want, err.Kind)
			assert.Equal(t, tt.status, err.StatusCode)
		})
	}
}

func TestClassifyStatusSuccess(t *testing.T) {
	assert.Nil(t, ClassifyStatus(Strava, "op", http.StatusOK, nil, nil))
	assert.Nil(t, ClassifyStatus(Strava, "op", http.StatusNoContent, nil, nil))
}

func TestClassifyStatusRateLimitSnapshot(t *testing.T) {
	h := http.Header{}
	h.Set("X-RateLimit-Limit", "200,2000")
	h.Set("X-RateLimit-Usage", "201,1500")

	err := ClassifyStatus(Strava, "op", http.StatusTooManyRequests, h, nil)
	require.NotNil(t, err.RateLimit)
	assert.Equal(t, 201, err.RateLimit.Usage15Min)

	err = ClassifyStatus(Strava, "op", http.StatusTooManyRequests, http.Header{}, nil)
	assert.Nil(t, err.RateLimit)
}

func TestClassifyStatusTruncatesBody(t *testing.T) {
	err := ClassifyStatus(Intervals, "op", http.StatusInternalServerError, nil, []byte(strings.Repeat("x", 2000)))
	assert.Less(t, len(err.Body), 600)
}

func TestClassifyTransport(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"wrapped deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), KindTimeout},
		{"net timeout", &url.Error{Op: "Get", URL: "x", Err: timeoutErr{}}, KindTimeout},
		{"refused", &url.Error{Op: "Get", URL: "x", Err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}}, KindNetworkError},
		{"canceled", context.Canceled, KindUnexpected},
		{"other", errors.New("weird"), KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTransport(Strava, "op", tt.err).Kind)
		})
	}
}

func TestKindHelpers(t *testing.T) {
	auth := fmt.Errorf("fetch: %w", &Error{Kind: KindAuthExpired, Provider: Strava})
	limited := &Error{Kind: KindRateLimited, Provider: Intervals}

	assert.True(t, IsAuthExpired(auth))
	assert.False(t, IsRateLimited(auth))
	assert.True(t, IsRateLimited(limited))
	assert.Equal(t, KindAuthExpired, KindOf(auth))
	assert.Equal(t, KindUnexpected, KindOf(errors.New("plain")))

	assert.True(t, KindRateLimited.Retryable())
	assert.False(t, KindAuthExpired.Retryable())
	assert.NotEmpty(t, KindTimeout.Message())
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := Unexpected(Strava, "op", inner)

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "unexpected_error")
}
