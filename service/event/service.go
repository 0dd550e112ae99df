// Package event turns task lifecycle transitions into events delivered to a
// handler asynchronously, so a slow consumer never holds up a worker.
package event

import (
	"context"
	"time"

	"github.com/viant/acp/internal/logging"
	"github.com/viant/acp/model/task"
	"github.com/viant/acp/service/messaging/memory"
	"go.uber.org/zap"
)

// Service buffers task events in a FIFO queue and feeds a single handler.
type Service struct {
	publisher *Publisher[*task.Task]
	listener  *Listener[*task.Task]
	logger    *zap.Logger
}

// New creates an event service delivering to handler
func New(handler func(*TaskEvent), logger *zap.Logger) *Service {
	logger = logging.OrNop(logger)
	queue := memory.NewQueue[Event[*task.Task]](memory.Config{PollTimeout: 100 * time.Millisecond}, nil)
	publisher := NewPublisher[*task.Task](queue)
	return &Service{
		publisher: publisher,
		listener:  NewListener[*task.Task](publisher, handler, logger),
		logger:    logger,
	}
}

// Notify publishes a task transition. Its signature matches the processor
// listener so it can be registered directly.
func (s *Service) Notify(eventType string, t *task.Task) {
	if err := s.publisher.Publish(context.Background(), NewTaskEvent(eventType, t)); err != nil {
		s.logger.Warn("failed to publish event", zap.String("task", t.ID), zap.Error(err))
	}
}

// Start begins delivery
func (s *Service) Start() {
	s.listener.Start()
}

// Stop delivers what is queued and ends delivery
func (s *Service) Stop() {
	s.listener.Stop()
}
