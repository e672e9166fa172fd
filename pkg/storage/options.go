package storage

import "github.com/rs/zerolog"

type (
	Option func(*options)

	options struct {
		clock    Clock
		logger   zerolog.Logger
		recovery RecoveryPolicy
	}
)

func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRecovery only affects a Proxy.
func WithRecovery(policy RecoveryPolicy) Option {
	return func(o *options) {
		o.recovery = policy
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock:    systemClock,
		logger:   zerolog.Nop(),
		recovery: DefaultRecoveryPolicy(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
