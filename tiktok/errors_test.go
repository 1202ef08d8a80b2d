package tiktok

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyResponse(t *testing.T) {
	testCases := []struct {
		description     string
		statusCode      int
		code            string
		allowValidation bool
		expected        error
	}{
		{"429 is a rate limit", http.StatusTooManyRequests, "", true, ErrRateLimit},
		{"429 wins over the error code", http.StatusTooManyRequests, "invalid_params", true, ErrRateLimit},
		{"401 is an authentication failure", http.StatusUnauthorized, "", true, ErrAuthentication},
		{"403 is an authentication failure", http.StatusForbidden, "scope_not_authorized", true, ErrAuthentication},
		{"500 is a server error", http.StatusInternalServerError, "", true, ErrRemoteServer},
		{"503 is a server error", http.StatusServiceUnavailable, "", true, ErrRemoteServer},
		{"400 with invalid params is a validation error", http.StatusBadRequest, "invalid_params", true, ErrValidation},
		{"unknown 4xx is a validation error", http.StatusUnprocessableEntity, "", true, ErrValidation},
		{"200 with a rate limit code", http.StatusOK, "rate_limit_exceeded", true, ErrRateLimit},
		{"200 with an expired token", http.StatusOK, "access_token_expired", true, ErrAuthentication},
		{"error codes are case-insensitive", http.StatusOK, "Access_Token_Invalid", true, ErrAuthentication},
		{"200 with an unknown code is a server error", http.StatusOK, "mystery", true, ErrRemoteServer},
		{"validation becomes a server error without caller input", http.StatusBadRequest, "invalid_params", false, ErrRemoteServer},
		{"unknown 4xx becomes a server error without caller input", http.StatusNotFound, "", false, ErrRemoteServer},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			assert.Equal(t, testCase.expected, classifyResponse(testCase.statusCode, testCase.code, testCase.allowValidation))
		})
	}
}

func TestError(t *testing.T) {
	t.Run("matches its kind and wrapped cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := fmt.Errorf("posting: %w", &Error{Kind: ErrTransientNetwork, Operation: opUploadVideo, Err: cause})

		assert.ErrorIs(t, err, ErrTransientNetwork)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, ErrRemoteServer)
	})

	t.Run("message includes the TikTok details", func(t *testing.T) {
		err := &Error{
			Kind:       ErrValidation,
			Operation:  opUploadVideo,
			StatusCode: http.StatusBadRequest,
			Code:       "invalid_params",
			Message:    "video_url is invalid",
			LogID:      "202410190000",
		}
		assert.Equal(t, "upload video: request rejected by TikTok (status 400): invalid_params: video_url is invalid (log_id: 202410190000)", err.Error())
	})
}

func TestRateLimitFromError(t *testing.T) {
	t.Run("returns the parsed headers", func(t *testing.T) {
		err := &Error{Kind: ErrRateLimit, RateLimit: &RateLimit{RetryAfter: 5 * time.Second}}
		rateLimit, ok := RateLimitFromError(fmt.Errorf("wrapped: %w", err))
		assert.True(t, ok)
		assert.Equal(t, 5*time.Second, rateLimit.RetryAfter)
	})

	t.Run("a bare sentinel has no wait hint", func(t *testing.T) {
		rateLimit, ok := RateLimitFromError(ErrRateLimit)
		assert.True(t, ok)
		assert.Equal(t, time.Duration(0), rateLimit.Wait(time.Now()))
	})

	t.Run("other errors are not rate limits", func(t *testing.T) {
		_, ok := RateLimitFromError(&Error{Kind: ErrRemoteServer})
		assert.False(t, ok)
	})
}

func TestParseRateLimit(t *testing.T) {
	now := time.Unix(1700000000, 0)

	t.Run("prefers Retry-After", func(t *testing.T) {
		header := http.Header{}
		header.Set("Retry-After", "7")
		header.Set("X-RateLimit-Reset", "1700000100")
		rateLimit := parseRateLimit(header)
		assert.Equal(t, 7*time.Second, rateLimit.Wait(now))
	})

	t.Run("falls back to the reset time", func(t *testing.T) {
		header := http.Header{}
		header.Set("X-RateLimit-Reset", "1700000030")
		rateLimit := parseRateLimit(header)
		assert.Equal(t, 30*time.Second, rateLimit.Wait(now))
	})

	t.Run("ignores garbage and past resets", func(t *testing.T) {
		header := http.Header{}
		header.Set("Retry-After", "soon")
		header.Set("X-RateLimit-Reset", "1600000000")
		rateLimit := parseRateLimit(header)
		assert.Equal(t, time.Duration(0), rateLimit.Wait(now))
	})
}

func TestNetworkError(t *testing.T) {
	err := networkError(opFetchAccountInfo, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrTransientNetwork)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "request timed out", err.Message)

	err = networkError(opFetchAccountInfo, errors.New("connection refused"))
	assert.Equal(t, "request failed", err.Message)
}
