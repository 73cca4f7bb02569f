package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrRateLimit marks a call the remote side refused for being too frequent.
	// WithRetry waits MaxDelay before trying it again.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries is returned once every attempt of WithRetry failed.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryOptions bounds WithRetry. Zero fields take the defaults below.
type RetryOptions struct {
	MaxAttempts  int           // default 3
	InitialDelay time.Duration // default 100ms
	MaxDelay     time.Duration // default 30s
	Multiplier   float64       // default 2
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 100 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.Multiplier <= 0 {
		o.Multiplier = 2
	}
	return o
}

// RetryableError lets a caller say whether Err is worth another attempt.
// A spreadsheet export marks client errors such as a missing permission as
// not retryable.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// WithRetry calls operation until it succeeds, the attempts run out, it
// returns a non-retryable RetryableError, or ctx ends. The wait between
// attempts grows by Multiplier up to MaxDelay.
func WithRetry(ctx context.Context, logger *slog.Logger, operation func() error, opts RetryOptions) error {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	wait := opts.InitialDelay
	for attempt := 1; ; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		var marked *RetryableError
		if errors.As(err, &marked) && !marked.Retryable {
			return err
		}
		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %v", ErrMaxRetries, attempt, err)
		}
		if errors.Is(err, ErrRateLimit) {
			wait = opts.MaxDelay
		}

		logger.Warn("Remote call failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"wait", wait,
			"error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		wait = min(time.Duration(float64(wait)*opts.Multiplier), opts.MaxDelay)
	}
}
