package tiktok

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Every error returned by Client matches exactly one of these with errors.Is.
var (
	ErrValidation       = errors.New("request rejected by TikTok")
	ErrAuthentication   = errors.New("TikTok authentication failed")
	ErrRateLimit        = errors.New("TikTok rate limit exceeded")
	ErrTransientNetwork = errors.New("network error calling TikTok")
	ErrRemoteServer     = errors.New("TikTok server error")
)

// Error carries the details of a failed TikTok call.
type Error struct {
	Kind       error
	Operation  string
	StatusCode int
	Code       string
	Message    string
	LogID      string
	RateLimit  *RateLimit
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.Operation, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, ": %s", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.LogID != "" {
		fmt.Fprintf(&b, " (log_id: %s)", e.LogID)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// RateLimit describes when TikTok will accept requests again.
type RateLimit struct {
	RetryAfter time.Duration
	Reset      time.Time
}

// Wait returns how long to wait before the next request, zero if unknown.
func (r RateLimit) Wait(now time.Time) time.Duration {
	if r.RetryAfter > 0 {
		return r.RetryAfter
	}
	if !r.Reset.IsZero() && r.Reset.After(now) {
		return r.Reset.Sub(now)
	}
	return 0
}

// RateLimitFromError returns the rate limit details if err is a rate-limit error.
func RateLimitFromError(err error) (*RateLimit, bool) {
	if !errors.Is(err, ErrRateLimit) {
		return nil, false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.RateLimit != nil {
		return apiErr.RateLimit, true
	}
	return &RateLimit{}, true
}

// TikTok error codes, from the error.code field of the response envelope.
var errorCodeKinds = map[string]error{
	"rate_limit_exceeded":              ErrRateLimit,
	"spam_risk_too_many_posts":         ErrRateLimit,
	"spam_risk_too_many_pending_share": ErrRateLimit,
	"access_token_invalid":             ErrAuthentication,
	"access_token_expired":             ErrAuthentication,
	"scope_not_authorized":             ErrAuthentication,
	"invalid_api_key":                  ErrAuthentication,
	"invalid_params":                   ErrValidation,
	"invalid_file_upload":              ErrValidation,
	"url_ownership_unverified":         ErrValidation,
	"video_format_check_failed":        ErrValidation,
	"internal_error":                   ErrRemoteServer,
}

// classifyResponse picks the error kind for a response that carried an error.
// Operations that take no caller input report rejected requests as server errors.
func classifyResponse(statusCode int, code string, allowValidation bool) error {
	kind, known := errorCodeKinds[strings.ToLower(code)]
	switch {
	case statusCode == http.StatusTooManyRequests:
		kind = ErrRateLimit
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		kind = ErrAuthentication
	case statusCode >= http.StatusInternalServerError:
		kind = ErrRemoteServer
	case known:
	case statusCode >= http.StatusBadRequest:
		kind = ErrValidation
	default:
		kind = ErrRemoteServer
	}
	if kind == ErrValidation && !allowValidation {
		kind = ErrRemoteServer
	}
	return kind
}

// parseRateLimit reads Retry-After (seconds) and X-RateLimit-Reset (unix seconds).
func parseRateLimit(header http.Header) *RateLimit {
	rateLimit := &RateLimit{}
	if seconds, err := strconv.Atoi(strings.TrimSpace(header.Get("Retry-After"))); err == nil && seconds > 0 {
		rateLimit.RetryAfter = time.Duration(seconds) * time.Second
	}
	if ts, err := strconv.ParseInt(strings.TrimSpace(header.Get("X-RateLimit-Reset")), 10, 64); err == nil && ts > 0 {
		rateLimit.Reset = time.Unix(ts, 0)
	}
	return rateLimit
}

func networkError(operation string, err error) *Error {
	message := "request failed"
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		message = "request timed out"
	}
	return &Error{Kind: ErrTransientNetwork, Operation: operation, Message: message, Err: err}
}

func isTimeout(err error) bool {
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}
