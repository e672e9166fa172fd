package storage

import (
	"math"
	"math/rand"
	"time"
)

// RecoveryPolicy controls whether a downgraded Proxy re-probes the relational
// backend and how long it waits between probes. Delays grow exponentially
// from InitialDelay by Multiplier up to MaxDelay. MaxAttempts of zero probes
// until the Proxy is closed or reconfigured.
type RecoveryPolicy struct {
	Enabled      bool
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxAttempts  int

	// Jitter spreads each delay by up to JitterFactor of its value in either
	// direction.
	Jitter       bool
	JitterFactor float64
}

// DefaultRecoveryPolicy keeps a downgrade permanent. The delay values apply
// once Enabled is switched on.
func DefaultRecoveryPolicy() RecoveryPolicy {
	return RecoveryPolicy{
		Enabled:      false,
		InitialDelay: 5 * time.Second,
		MaxDelay:     5 * time.Minute,
		Multiplier:   2.0,
		MaxAttempts:  0,
		Jitter:       true,
		JitterFactor: 0.2,
	}
}

// NextDelay returns how long to wait before probe number attempt (0-based)
// and whether to probe at all.
func (p RecoveryPolicy) NextDelay(attempt int, _ error) (time.Duration, bool) {
	if !p.Enabled {
		return 0, false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		return 0, false
	}

	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := float64(p.InitialDelay) * math.Pow(multiplier, float64(attempt))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}

	if p.Jitter && p.JitterFactor > 0 {
		//nolint:gosec // jitter only
		delay += delay * p.JitterFactor * (2*rand.Float64() - 1)
		if delay < 0 {
			delay = float64(p.InitialDelay)
		}
	}
	return time.Duration(delay), true
}
