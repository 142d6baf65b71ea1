package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrTimeout = errors.New("request timed out")

const (
	DefaultMaxAttempts = 3
	DefaultTimeout     = 10 * time.Second
	DefaultBaseDelay   = time.Second
)

// Options configures Do. Zero values fall back to the defaults above.
type Options struct {
	MaxAttempts int
	Timeout     time.Duration
	BaseDelay   time.Duration

	// OnRetry runs synchronously after a failed attempt, before the backoff wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

func DefaultOptions() Options {
	return Options{
		MaxAttempts: DefaultMaxAttempts,
		Timeout:     DefaultTimeout,
		BaseDelay:   DefaultBaseDelay,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	return o
}

// Delay returns the wait that follows the given failed attempt (1-based).
func Delay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}

// Do runs op until it succeeds or MaxAttempts attempts have failed.
//
// Each attempt races op against Timeout; a lost race counts as a failure
// wrapping ErrTimeout. The op is not interrupted beyond having its context
// cancelled, so its late result is discarded. After the final failure the
// last error is returned. Cancelling ctx stops retrying immediately.
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts Options) (T, error) {
	opts = opts.withDefaults()

	var zero T
	var lastErr error

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		result, err := attemptWithTimeout(ctx, op, opts.Timeout)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == opts.MaxAttempts {
			break
		}

		delay := Delay(opts.BaseDelay, attempt)
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

type outcome[T any] struct {
	value T
	err   error
}

func attemptWithTimeout[T any](ctx context.Context, op func(ctx context.Context) (T, error), timeout time.Duration) (T, error) {
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so a late op never blocks after the race is lost.
	done := make(chan outcome[T], 1)
	go func() {
		value, err := op(attemptCtx)
		done <- outcome[T]{value: value, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case out := <-done:
		return out.value, out.err
	case <-timer.C:
		return zero, fmt.Errorf("%w after %dms", ErrTimeout, timeout.Milliseconds())
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
