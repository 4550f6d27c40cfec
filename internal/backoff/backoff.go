// Package backoff implements the retry policy shared by all samplers.
//
// The default policy retries forever and waits 2^(n-1) seconds before the
// n-th retry, with no jitter. Callers that need an escape hatch set
// MaxAttempts, MaxDelay or cancel the context passed to Retry.
package backoff

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

const (
	// DefaultBaseDelay is the delay before the first retry.
	DefaultBaseDelay = time.Second

	// DefaultMultiplier is the growth factor between consecutive delays.
	DefaultMultiplier = 2.0
)

// ErrAttemptsExhausted is returned when MaxAttempts calls have all failed.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// SleepFunc blocks for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy describes how failed operations are retried.
// The zero value behaves like DefaultPolicy.
type Policy struct {
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// Multiplier scales the delay after each failure.
	Multiplier float64

	// MaxDelay caps a single delay. Zero means no cap.
	MaxDelay time.Duration

	// MaxAttempts bounds the total number of calls. Zero means unbounded.
	MaxAttempts int

	// Jitter randomizes each delay by up to ±Jitter of its value (0..1).
	Jitter float64

	// Sleep replaces the context-aware timer, mostly for tests.
	Sleep SleepFunc
}

// DefaultPolicy returns the unbounded 1s, 2s, 4s, ... policy.
func DefaultPolicy() Policy {
	return Policy{
		BaseDelay:  DefaultBaseDelay,
		Multiplier: DefaultMultiplier,
	}
}

// Delay returns the wait before the n-th retry (n starts at 1), without jitter.
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}

	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = DefaultMultiplier
	}

	delay := time.Duration(math.MaxInt64)
	if d := float64(base) * math.Pow(mult, float64(n-1)); d < math.MaxInt64 {
		delay = time.Duration(d)
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Validate reports policy values that cannot be honored.
func (p Policy) Validate() error {
	switch {
	case p.BaseDelay < 0:
		return fmt.Errorf("backoff: base delay must not be negative, got %s", p.BaseDelay)
	case p.MaxDelay < 0:
		return fmt.Errorf("backoff: max delay must not be negative, got %s", p.MaxDelay)
	case p.MaxAttempts < 0:
		return fmt.Errorf("backoff: max attempts must not be negative, got %d", p.MaxAttempts)
	case p.Jitter < 0 || p.Jitter > 1:
		return fmt.Errorf("backoff: jitter must be within [0, 1], got %v", p.Jitter)
	}
	return nil
}

func (p Policy) jittered(d time.Duration) time.Duration {
	if p.Jitter <= 0 || d <= 0 {
		return d
	}
	spread := float64(d) * p.Jitter
	return time.Duration(float64(d) - spread + rand.Float64()*2*spread)
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

// SleepContext waits for d unless ctx is cancelled first.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Attempt describes a failed call that is about to be retried.
type Attempt struct {
	// Number is the count of failed calls so far, starting at 1.
	Number int

	// Delay is how long Retry will wait before the next call.
	Delay time.Duration

	// Err is the error returned by the failed call.
	Err error
}

// Option configures a single Retry invocation.
type Option func(*retryOptions)

type retryOptions struct {
	onRetry []func(Attempt)
}

// OnRetry registers a hook invoked before every backoff sleep.
func OnRetry(fn func(Attempt)) Option {
	return func(o *retryOptions) {
		if fn != nil {
			o.onRetry = append(o.onRetry, fn)
		}
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Retry returns the wrapped error
// immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry calls op until it succeeds, returns a Permanent error, the policy
// runs out of attempts, or ctx is done.
func Retry[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var o retryOptions
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	for attempt := 1; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, errors.Join(ctxErr, err)
		}

		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return zero, fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, attempt, err)
		}

		delay := p.jittered(p.Delay(attempt))
		for _, fn := range o.onRetry {
			fn(Attempt{Number: attempt, Delay: delay, Err: err})
		}

		if sleepErr := p.sleep(ctx, delay); sleepErr != nil {
			return zero, errors.Join(sleepErr, err)
		}
	}
}
