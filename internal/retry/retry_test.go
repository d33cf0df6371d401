package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinlog/internal/structures"
)

func TestDo_DisabledRunsOnce(t *testing.T) {
	policy := NewPolicy(structures.RetryConfig{Enabled: false, MaxAttempts: 5})
	calls := 0

	err := policy.Do(context.Background(), func() error {
		calls++
		return errors.New("boom")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	policy := NewPolicy(structures.RetryConfig{
		Enabled:     true,
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	})
	calls := 0

	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ReturnsLastError(t *testing.T) {
	policy := NewPolicy(structures.RetryConfig{
		Enabled:     true,
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
	})
	last := errors.New("still broken")

	err := policy.Do(context.Background(), func() error { return last })

	assert.ErrorIs(t, err, last)
}

func TestDo_CancelledContextStopsRetrying(t *testing.T) {
	policy := NewPolicy(structures.RetryConfig{
		Enabled:     true,
		MaxAttempts: 10,
		BaseDelay:   time.Hour,
	})
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := policy.Do(ctx, func() error {
		calls++
		return errors.New("boom")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
