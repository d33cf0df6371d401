package retry

import (
	"context"
	"math/rand"
	"time"

	"spinlog/internal/structures"
)

// Policy retries an operation with exponential backoff and full jitter.
// The zero value (and a disabled config) runs the operation exactly once.
type Policy struct {
	enabled     bool
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func NewPolicy(conf structures.RetryConfig) Policy {
	return Policy{
		enabled:     conf.Enabled,
		maxAttempts: conf.MaxAttempts,
		baseDelay:   conf.BaseDelay,
		maxDelay:    conf.MaxDelay,
	}
}

// Do runs fn until it succeeds, attempts are exhausted, or the context is
// cancelled. The last error is returned.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.maxAttempts
	if !p.enabled || attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.delay(attempt)):
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}

func (p Policy) delay(attempt int) time.Duration {
	backoff := p.baseDelay << (attempt - 1)
	if p.maxDelay > 0 && backoff > p.maxDelay {
		backoff = p.maxDelay
	}
	if backoff <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(backoff)))
}
