package registry

import (
	"time"

	"go.uber.org/zap"
)

// Option customises the registry.
type Option func(s *Service)

// WithConfig sets the registry configuration
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithLivenessWindow sets the maximum heartbeat age of an allocatable resource
func WithLivenessWindow(window time.Duration) Option {
	return func(s *Service) {
		s.config.LivenessWindow = window
	}
}

// WithStrictType makes a task resource type a hard allocation filter
func WithStrictType(strict bool) Option {
	return func(s *Service) {
		s.config.StrictType = strict
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}
