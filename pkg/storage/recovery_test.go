package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecoveryPolicy_NextDelay(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		_, ok := DefaultRecoveryPolicy().NextDelay(0, nil)
		assert.False(t, ok)
	})

	t.Run("without jitter", func(t *testing.T) {
		policy := RecoveryPolicy{
			Enabled:      true,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   2,
		}

		want := []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
			800 * time.Millisecond,
			time.Second,
			time.Second,
		}
		for attempt, expected := range want {
			delay, ok := policy.NextDelay(attempt, nil)
			assert.True(t, ok)
			assert.Equal(t, expected, delay, "attempt %d", attempt)
		}
	})

	t.Run("max attempts", func(t *testing.T) {
		policy := RecoveryPolicy{Enabled: true, InitialDelay: time.Millisecond, Multiplier: 2, MaxAttempts: 3}
		for attempt := 0; attempt < 3; attempt++ {
			_, ok := policy.NextDelay(attempt, nil)
			assert.True(t, ok)
		}
		_, ok := policy.NextDelay(3, nil)
		assert.False(t, ok)
	})

	t.Run("jitter stays in range", func(t *testing.T) {
		policy := DefaultRecoveryPolicy()
		policy.Enabled = true
		for i := 0; i < 50; i++ {
			delay, ok := policy.NextDelay(1, nil)
			assert.True(t, ok)
			assert.GreaterOrEqual(t, delay, 8*time.Second)
			assert.LessOrEqual(t, delay, 12*time.Second)
		}
	})
}
