package heartbeat

import (
	"time"

	"go.uber.org/zap"
)

// Option customises the monitor.
type Option func(m *Monitor)

// WithConfig sets the monitor configuration
func WithConfig(config Config) Option {
	return func(m *Monitor) {
		m.config = config
	}
}

// WithInterval sets the sweep interval
func WithInterval(interval time.Duration) Option {
	return func(m *Monitor) {
		m.config.Interval = interval
	}
}

// WithProbe sets the liveness probe. Without a probe the monitor only
// reports staleness.
func WithProbe(probe Probe) Option {
	return func(m *Monitor) {
		m.probe = probe
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}
