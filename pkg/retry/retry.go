package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Common errors
var (
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrContextCanceled    = errors.New("context canceled during retry")
)

// Config contains retry configuration
type Config struct {
	// MaxRetries is the number of retry attempts after the initial one
	MaxRetries int
	// InitialInterval is the first backoff interval
	InitialInterval time.Duration
	// MaxInterval caps the backoff interval
	MaxInterval time.Duration
	// Multiplier grows the interval after each attempt
	Multiplier float64
	// JitterFactor adds ±factor random jitter to each interval
	JitterFactor float64
}

// DefaultConfig returns the default retry configuration:
// exponential backoff 100ms, 200ms, 400ms with ±10% jitter.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is the function to be retried
type Operation func(ctx context.Context) error

// PermanentError wraps an error that must not be retried
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent marks an error as not retryable
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Result contains the outcome of a retried operation
type Result struct {
	// Err is the final error (nil on success)
	Err error
	// LastError is the error from the last attempt
	LastError error
	// Attempts is the total number of attempts made
	Attempts int
}

// Do executes op, retrying failed attempts with exponential backoff until
// success, a permanent error, context cancellation, or retry exhaustion.
func Do(ctx context.Context, cfg *Config, op Operation) *Result {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 2 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}

	result := &Result{}
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result.Attempts = attempt + 1

		if ctx.Err() != nil {
			result.Err = ErrContextCanceled
			result.LastError = lastErr
			return result
		}

		err := op(ctx)
		if err == nil {
			return result
		}
		lastErr = err

		var permErr *PermanentError
		if errors.As(err, &permErr) {
			result.Err = permErr.Err
			result.LastError = permErr.Err
			return result
		}

		if attempt == cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			result.Err = ErrContextCanceled
			result.LastError = lastErr
			return result
		case <-time.After(interval(cfg, attempt)):
		}
	}

	result.Err = ErrMaxRetriesExceeded
	result.LastError = lastErr
	return result
}

// interval computes the backoff interval for a given attempt
func interval(cfg *Config, attempt int) time.Duration {
	d := float64(cfg.InitialInterval) * math.Pow(cfg.Multiplier, float64(attempt))

	if cfg.JitterFactor > 0 {
		jitter := d * cfg.JitterFactor
		d += (rand.Float64()*2 - 1) * jitter
	}

	if d > float64(cfg.MaxInterval) {
		d = float64(cfg.MaxInterval)
	}
	if d < 0 {
		d = float64(cfg.InitialInterval)
	}
	return time.Duration(d)
}
