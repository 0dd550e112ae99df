package processor

import (
	"time"

	"github.com/viant/acp/model/task"
	"github.com/viant/acp/service/dao"
	"github.com/viant/acp/service/messaging"
	"github.com/viant/acp/service/metrics"
	"go.uber.org/zap"
)

// Option customises the processor.
type Option func(*Service)

// WithTaskDAO sets the task table
func WithTaskDAO(taskDAO dao.Service[string, task.Task]) Option {
	return func(s *Service) {
		s.taskDAO = taskDAO
	}
}

// WithMessageQueue sets the ticket queue
func WithMessageQueue(queue messaging.Queue[task.Ticket]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithAllocator sets the resource allocator, usually the registry
func WithAllocator(allocator Allocator) Option {
	return func(s *Service) {
		s.allocator = allocator
	}
}

// WithMetrics sets the metrics aggregator
func WithMetrics(aggregator *metrics.Aggregator) Option {
	return func(s *Service) {
		s.metrics = aggregator
	}
}

// WithWorkers sets the number of worker goroutines
func WithWorkers(count int) Option {
	return func(s *Service) {
		s.config.Workers = count
	}
}

// WithRequeueDelay sets the minimum spacing between requeues
func WithRequeueDelay(delay time.Duration) Option {
	return func(s *Service) {
		s.config.RequeueDelay = delay
	}
}

// WithRecovery sets the hook invoked after a task fails
func WithRecovery(fn RecoveryFunc) Option {
	return func(s *Service) {
		s.recovery = fn
	}
}

// WithListeners registers callbacks notified on task lifecycle events.
func WithListeners(listeners ...Listener) Option {
	return func(s *Service) {
		if len(listeners) == 0 {
			return
		}
		s.listeners = append(s.listeners, listeners...)
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for task timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}
