package acp

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/acp/internal/clock"
	"github.com/viant/acp/internal/logging"
	"github.com/viant/acp/model/task"
	"github.com/viant/acp/service/dao"
	"github.com/viant/acp/service/event"
	taskdao "github.com/viant/acp/service/dao/task/memory"
	"github.com/viant/acp/service/heartbeat"
	"github.com/viant/acp/service/messaging/memory"
	"github.com/viant/acp/service/metrics"
	"github.com/viant/acp/service/processor"
	"github.com/viant/acp/service/registry"
	"github.com/viant/acp/tracing"
	"go.uber.org/zap"
)

// ErrDuplicateTask is returned when a task id was already submitted.
var ErrDuplicateTask = dao.ErrAlreadyExists

// Service is the scheduler façade wiring the task table, the ticket queue,
// the resource registry, the worker pool, the heartbeat monitor and metrics.
type Service struct {
	config    *Config
	overrides []func(*Config)
	logger    *zap.Logger
	now       func() time.Time
	probe     heartbeat.Probe
	recovery  processor.RecoveryFunc
	listeners []processor.Listener
	onEvent   func(*event.TaskEvent)

	events    *event.Service
	tasks     *taskdao.Service
	queue     *memory.Queue[task.Ticket]
	registry  *registry.Service
	metrics   *metrics.Aggregator
	processor *processor.Service
	monitor   *heartbeat.Monitor
}

// New creates a scheduler. Workers do not run until Start is called.
func New(options ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig(), now: clock.Now}
	if err := ret.init(options); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	if s.config == nil {
		s.config = DefaultConfig()
	}
	for _, override := range s.overrides {
		override(s.config)
	}
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if s.logger == nil {
		logger, err := logging.New(s.config.Logging)
		if err != nil {
			return err
		}
		s.logger = logger
	}
	if s.config.Tracing.Enabled {
		if err := tracing.Init(s.config.Tracing.ServiceName, s.config.Tracing.ServiceVersion, s.config.Tracing.OutputFile); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
	}

	s.tasks = taskdao.New(taskdao.WithMaxFinished(s.config.Task.MaxFinished))
	s.queue = memory.NewQueue[task.Ticket](memory.Config{PollTimeout: s.config.Task.PollTimeout}, task.PriorityOf)
	s.registry = registry.New(
		registry.WithConfig(s.config.Registry),
		registry.WithClock(s.now),
		registry.WithLogger(s.logger.Named("registry")))
	s.metrics = metrics.New(s.registry)
	if s.onEvent != nil {
		s.events = event.New(s.onEvent, s.logger.Named("event"))
		s.listeners = append(s.listeners, s.events.Notify)
	}

	processorOptions := []processor.Option{
		processor.WithConfig(s.config.Processor),
		processor.WithTaskDAO(s.tasks),
		processor.WithMessageQueue(s.queue),
		processor.WithAllocator(s.registry),
		processor.WithMetrics(s.metrics),
		processor.WithClock(s.now),
		processor.WithLogger(s.logger.Named("processor")),
		processor.WithListeners(s.listeners...),
	}
	if s.recovery != nil {
		processorOptions = append(processorOptions, processor.WithRecovery(s.recovery))
	}
	var err error
	if s.processor, err = processor.New(processorOptions...); err != nil {
		return err
	}
	s.monitor = heartbeat.New(s.registry,
		heartbeat.WithConfig(s.config.Heartbeat),
		heartbeat.WithProbe(s.probe),
		heartbeat.WithLogger(s.logger.Named("heartbeat")))
	return nil
}

// Config returns the effective configuration
func (s *Service) Config() *Config {
	return s.config
}

// Start launches the worker pool and the heartbeat monitor. Work items run
// on ctx; canceling it also stops dequeuing. Calling Start twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	if s.events != nil {
		s.events.Start()
	}
	if err := s.processor.Start(ctx); err != nil {
		return err
	}
	s.monitor.Start(ctx)
	return nil
}

// Shutdown stops dequeuing and waits until in-flight tasks finish or ctx is
// done. Pending tasks stay queued and resume on the next Start. When ctx ends
// first an error is returned while in-flight tasks keep running to
// completion in the background; their events are still delivered before the
// event stream stops.
func (s *Service) Shutdown(ctx context.Context) error {
	s.monitor.Stop()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.processor.Shutdown()
		if s.events != nil {
			s.events.Stop()
		}
	}()
	select {
	case <-done:
		_ = s.logger.Sync()
		return nil
	case <-ctx.Done():
		s.logger.Warn("shutdown interrupted, in-flight tasks still running", zap.Error(ctx.Err()))
		return fmt.Errorf("shutdown interrupted: %w", ctx.Err())
	}
}

// Running reports whether workers are active
func (s *Service) Running() bool {
	return s.processor.Running()
}
