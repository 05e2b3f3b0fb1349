package retry

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestPolicy_StopsAfterMaxAttempts(t *testing.T) {
	attempts := 0
	policy := NewPolicy(3, 0)

	err := policy.Do(context.Background(), func(attempt int) error {
		attempts++
		return errors.New("boom")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestPolicy_StopsOnSuccess(t *testing.T) {
	attempts := 0
	policy := NewPolicy(5, 0)

	err := policy.Do(context.Background(), func(attempt int) error {
		attempts++
		if attempts == 2 {
			return nil
		}
		return errors.New("boom")
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestPolicy_NonRetryableShortCircuits(t *testing.T) {
	terminal := errors.New("terminal")
	attempts := 0
	policy := NewPolicy(5, 0).WithRetryable(func(err error) bool {
		return !errors.Is(err, terminal)
	})

	err := policy.Do(context.Background(), func(attempt int) error {
		attempts++
		return terminal
	})

	assert.ErrorIs(t, err, terminal)
	assert.Equal(t, 1, attempts)
}

func TestPolicy_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := NewPolicy(3, time.Second)
	err := policy.Do(ctx, func(attempt int) error {
		return errors.New("boom")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
