package service

import (
	"context"
	"errors"
	"time"

	"github.com/truemediaorg/tiktokpost/tiktok"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
	DefaultMaxDelay    = 30 * time.Second
)

// RetryPolicy bounds how often a rate-limited call is repeated. Other failures
// are never retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// delay returns the wait after the given failed attempt (1-based).
// The server's hint wins when it asks for longer than the backoff.
func (p RetryPolicy) delay(attempt int, hint time.Duration) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt && (p.MaxDelay <= 0 || d < p.MaxDelay); i++ {
		d *= 2
	}
	if hint > d {
		d = hint
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Sleeper waits for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type callState int

const (
	statePending callState = iota
	stateAttemptSent
	stateRateLimited
	stateSucceeded
	stateFailed
)

func (s callState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateAttemptSent:
		return "attempt sent"
	case stateRateLimited:
		return "rate limited"
	case stateSucceeded:
		return "succeeded"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type retrier struct {
	policy RetryPolicy
	sleep  Sleeper
	now    func() time.Time
}

func newRetrier(policy RetryPolicy) retrier {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	return retrier{
		policy: policy,
		sleep:  sleepContext,
		now:    time.Now,
	}
}

// run drives one logical call through its states and reports how many attempts
// were sent. Exhausting the attempts returns the last rate-limit error.
func (r retrier) run(ctx context.Context, operation string, call func(ctx context.Context) error) (int, error) {
	state := statePending
	attempts := 0
	var err error
	for {
		switch state {
		case statePending, stateRateLimited:
			attempts++
			state = stateAttemptSent
			err = call(ctx)
		case stateAttemptSent:
			switch {
			case err == nil:
				state = stateSucceeded
			case !errors.Is(err, tiktok.ErrRateLimit) || attempts >= r.policy.MaxAttempts:
				state = stateFailed
			default:
				var hint time.Duration
				if rateLimit, ok := tiktok.RateLimitFromError(err); ok {
					hint = rateLimit.Wait(r.now())
				}
				delay := r.policy.delay(attempts, hint)
				log.WithField("operation", operation).WithField("attempt", attempts).Warnf("TikTok rate limit encountered, retrying in %s", delay)
				if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
					// Give up with the rate-limit error rather than the cancellation
					return attempts, err
				}
				state = stateRateLimited
			}
		case stateSucceeded:
			return attempts, nil
		default:
			return attempts, err
		}
	}
}
