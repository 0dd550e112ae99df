package processor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/viant/acp/internal/clock"
	"github.com/viant/acp/internal/logging"
	"github.com/viant/acp/model/task"
	"github.com/viant/acp/service/dao"
	"github.com/viant/acp/service/messaging"
	"github.com/viant/acp/service/metrics"
	"github.com/viant/acp/tracing"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrWorkItemPanic wraps a value recovered from a panicking work item.
var ErrWorkItemPanic = errors.New("work item panicked")

// Lifecycle events passed to listeners.
const (
	EventRequeued  = "requeued"
	EventStarted   = "started"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// Listener observes task lifecycle events. It receives a copy of the task.
type Listener func(event string, t *task.Task)

// RecoveryFunc is invoked after a task failed and its resource was released.
type RecoveryFunc func(ctx context.Context, t *task.Task, err error)

// Allocator hands out and takes back resource slots.
type Allocator interface {
	Allocate(t *task.Task) (string, bool)
	Release(id string) error
}

// Config represents processor configuration
type Config struct {
	// Workers is the number of goroutines executing tasks
	Workers int `json:"workers" yaml:"workers"`

	// RequeueDelay spaces out requeues when no resource qualifies, so that
	// sustained exhaustion cannot spin the queue.
	RequeueDelay time.Duration `json:"requeueDelay" yaml:"requeueDelay"`
}

// DefaultConfig returns the default processor configuration
func DefaultConfig() Config {
	return Config{
		Workers:      4,
		RequeueDelay: 50 * time.Millisecond,
	}
}

// Service runs the worker pool
type Service struct {
	config    Config
	taskDAO   dao.Service[string, task.Task]
	queue     messaging.Queue[task.Ticket]
	allocator Allocator
	metrics   *metrics.Aggregator
	recovery  RecoveryFunc
	listeners []Listener
	logger    *zap.Logger
	now       func() time.Time
	limiter   *rate.Limiter

	mu       sync.Mutex
	running    bool
	dequeueCtx context.Context
	cancelFn   context.CancelFunc
	workerWg sync.WaitGroup
}

// New creates a processor service
func New(options ...Option) (*Service, error) {
	s := &Service{
		config: DefaultConfig(),
		now:    clock.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.queue == nil {
		return nil, fmt.Errorf("message queue is required")
	}
	if s.taskDAO == nil {
		return nil, fmt.Errorf("taskDAO service is required")
	}
	if s.allocator == nil {
		return nil, fmt.Errorf("allocator is required")
	}
	if s.config.Workers <= 0 {
		return nil, fmt.Errorf("invalid worker count: %d", s.config.Workers)
	}
	s.logger = logging.OrNop(s.logger)
	if s.recovery == nil {
		s.recovery = s.logFailure
	}
	limit := rate.Inf
	if s.config.RequeueDelay > 0 {
		limit = rate.Every(s.config.RequeueDelay)
	}
	s.limiter = rate.NewLimiter(limit, 1)
	return s, nil
}

// Start launches the workers. Dequeuing stops when ctx is canceled or on
// Shutdown; work items run on ctx. Calling Start on a running processor is a
// no-op, while workers stopped by a canceled ctx are joined and relaunched.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		if s.dequeueCtx.Err() == nil {
			return nil
		}
		s.cancelFn()
		s.workerWg.Wait()
	}
	dequeueCtx, cancel := context.WithCancel(ctx)
	s.dequeueCtx = dequeueCtx
	s.cancelFn = cancel
	s.running = true
	for i := 0; i < s.config.Workers; i++ {
		s.workerWg.Add(1)
		go s.work(dequeueCtx, ctx, i)
	}
	s.logger.Info("processor started", zap.Int("workers", s.config.Workers))
	return nil
}

// Shutdown stops dequeuing, waits for in-flight tasks to finish and joins
// all workers. It is safe to call more than once.
func (s *Service) Shutdown() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancelFn()
	s.mu.Unlock()
	s.workerWg.Wait()
	s.logger.Info("processor stopped")
}

// Running reports whether workers are active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.dequeueCtx.Err() == nil
}

func (s *Service) work(ctx, execCtx context.Context, id int) {
	defer s.workerWg.Done()
	for {
		msg, err := s.queue.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("dequeue failed", zap.Int("worker", id), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		if msg == nil {
			continue
		}
		if pErr := s.processMessage(ctx, execCtx, id, msg); pErr != nil {
			s.logger.Error("failed to process ticket", zap.Int("worker", id), zap.Error(pErr))
		}
	}
}

// processMessage dispatches a single ticket.
func (s *Service) processMessage(ctx, execCtx context.Context, workerID int, message messaging.Message[task.Ticket]) error {
	ticket := message.T()
	aTask, err := s.taskDAO.Load(ctx, ticket.TaskID)
	if err != nil {
		_ = message.Ack()
		if errors.Is(err, dao.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load task %s: %w", ticket.TaskID, err)
	}
	if aTask.Status != task.StatusPending {
		return message.Ack()
	}

	resourceID, ok := s.allocator.Allocate(aTask)
	if !ok {
		return s.requeue(ctx, workerID, aTask, message)
	}
	if err = message.Ack(); err != nil {
		s.release(resourceID)
		return err
	}
	if err = aTask.Start(resourceID, s.now()); err != nil {
		s.release(resourceID)
		return err
	}
	if err = s.taskDAO.Save(ctx, aTask); err != nil {
		s.logger.Warn("failed to save running task", zap.String("task", aTask.ID), zap.Error(err))
	}
	s.notify(EventStarted, aTask)
	s.logger.Debug("task started",
		zap.Int("worker", workerID),
		zap.String("task", aTask.ID),
		zap.String("resource", resourceID))
	s.execute(execCtx, aTask)
	return nil
}

// requeue puts the ticket back when no resource qualifies. Everything about
// the attempt is recorded before the Nack hands the ticket to another worker.
func (s *Service) requeue(ctx context.Context, workerID int, aTask *task.Task, message messaging.Message[task.Ticket]) error {
	aTask.Attempts++
	if err := s.taskDAO.Save(ctx, aTask); err != nil {
		s.logger.Warn("failed to save requeued task", zap.String("task", aTask.ID), zap.Error(err))
	}
	s.metrics.RecordRequeue()
	s.notify(EventRequeued, aTask)
	if err := message.Nack(nil); err != nil {
		return fmt.Errorf("failed to requeue task %s: %w", aTask.ID, err)
	}
	s.logger.Debug("no resource available, task requeued",
		zap.Int("worker", workerID),
		zap.String("task", aTask.ID),
		zap.Int("attempts", aTask.Attempts))
	_ = s.limiter.Wait(ctx)
	return nil
}

// execute runs the work item and records the outcome. Metrics see the slot
// still held; the terminal status is saved only after the slot is released.
func (s *Service) execute(ctx context.Context, aTask *task.Task) {
	resourceID := aTask.ResourceID
	release := sync.OnceFunc(func() {
		s.release(resourceID)
		aTask.Release()
	})
	defer release()
	ctx, span := tracing.StartSpan(ctx, "task.run "+aTask.ID, tracing.KindConsumer)
	span.WithAttributes(map[string]string{
		"task.id":       aTask.ID,
		"task.priority": strconv.Itoa(aTask.Priority),
		"resource.id":   resourceID,
	})
	result, runErr := s.run(ctx, aTask)
	tracing.EndSpan(span, runErr)

	at := s.now()
	if runErr == nil {
		_ = aTask.Complete(result, at)
	} else {
		_ = aTask.Fail(runErr, at)
	}
	s.metrics.Record(aTask, runErr == nil)
	release()
	// completion must persist even when the dispatch context is gone
	if err := s.taskDAO.Save(context.WithoutCancel(ctx), aTask); err != nil {
		s.logger.Error("failed to save finished task", zap.String("task", aTask.ID), zap.Error(err))
	}
	if runErr != nil {
		s.notify(EventFailed, aTask)
		s.recovery(ctx, aTask.Clone(), runErr)
		return
	}
	s.notify(EventCompleted, aTask)
	s.logger.Debug("task completed",
		zap.String("task", aTask.ID),
		zap.String("resource", resourceID),
		zap.Duration("duration", aTask.Duration()))
}

func (s *Service) run(ctx context.Context, aTask *task.Task) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrWorkItemPanic, r)
		}
	}()
	if aTask.Item == nil {
		return nil, fmt.Errorf("task %s has no work item", aTask.ID)
	}
	return aTask.Item.Run(ctx, aTask.Args)
}

func (s *Service) release(resourceID string) {
	if err := s.allocator.Release(resourceID); err != nil {
		s.logger.Error("failed to release resource", zap.String("resource", resourceID), zap.Error(err))
	}
}

func (s *Service) notify(event string, aTask *task.Task) {
	for _, listener := range s.listeners {
		listener(event, aTask.Clone())
	}
}

func (s *Service) logFailure(_ context.Context, t *task.Task, err error) {
	s.logger.Warn("task failed",
		zap.String("task", t.ID),
		zap.Int("attempts", t.Attempts),
		zap.Error(err))
}
