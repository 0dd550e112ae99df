package acp

import (
	"time"

	"github.com/viant/acp/service/event"
	"github.com/viant/acp/service/heartbeat"
	"github.com/viant/acp/service/processor"
	"github.com/viant/acp/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// Option customises the scheduler.
type Option func(s *Service)

// WithConfig replaces the whole configuration with a copy of config; nil
// restores the defaults.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config == nil {
			s.config = nil
			return
		}
		cloned := *config
		s.config = &cloned
	}
}

// WithWorkers sets the worker pool size, on top of whichever config is used
func WithWorkers(count int) Option {
	return func(s *Service) {
		s.overrides = append(s.overrides, func(c *Config) {
			c.Processor.Workers = count
		})
	}
}

// WithLivenessWindow sets the maximum heartbeat age of an allocatable
// resource, on top of whichever config is used
func WithLivenessWindow(window time.Duration) Option {
	return func(s *Service) {
		s.overrides = append(s.overrides, func(c *Config) {
			c.Registry.LivenessWindow = window
		})
	}
}

// WithLogger sets the logger shared by all components. It takes precedence
// over the logging configuration.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithProbe sets the heartbeat probe. Without a probe resources must be kept
// alive with Service.Heartbeat.
func WithProbe(probe heartbeat.Probe) Option {
	return func(s *Service) {
		s.probe = probe
	}
}

// WithRecovery sets the hook invoked after a task fails
func WithRecovery(fn processor.RecoveryFunc) Option {
	return func(s *Service) {
		s.recovery = fn
	}
}

// WithListeners registers task lifecycle listeners
func WithListeners(listeners ...processor.Listener) Option {
	return func(s *Service) {
		s.listeners = append(s.listeners, listeners...)
	}
}

// WithEventHandler delivers task lifecycle events to handler on a dedicated
// goroutine, in the order they occurred.
func WithEventHandler(handler func(*event.TaskEvent)) Option {
	return func(s *Service) {
		s.onEvent = handler
	}
}

// WithClock overrides the time source used for task and resource timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The first
// successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
