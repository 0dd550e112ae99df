package acp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/acp/internal/clock"
	"github.com/viant/acp/model/resource"
	"github.com/viant/acp/model/task"
	"github.com/viant/acp/service/dao"
	"github.com/viant/acp/service/metrics"
	"go.uber.org/zap"
)

var (
	// ErrNotFinished is returned by Result for a pending or running task.
	ErrNotFinished = errors.New("task not finished")

	// ErrInvalidTask is returned when a submitted task cannot be scheduled.
	ErrInvalidTask = errors.New("invalid task")
)

const waitPollInterval = 10 * time.Millisecond

// SubmitTask records a new pending task and queues it by priority; a lower
// value runs first. A duplicate id fails with ErrDuplicateTask.
func (s *Service) SubmitTask(ctx context.Context, id string, item task.WorkItem, args task.Args, priority int, opts ...task.Option) error {
	return s.Submit(ctx, task.New(id, item, args, priority, opts...))
}

// Submit schedules a task built by the caller.
func (s *Service) Submit(ctx context.Context, aTask *task.Task) error {
	if aTask == nil {
		return fmt.Errorf("%w: task was nil", ErrInvalidTask)
	}
	if aTask.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidTask)
	}
	if aTask.Item == nil {
		return fmt.Errorf("%w: %s has no work item", ErrInvalidTask, aTask.ID)
	}
	if aTask.Status == "" {
		aTask.Status = task.StatusPending
	}
	if aTask.Status != task.StatusPending {
		return fmt.Errorf("%w: %s is %s", ErrInvalidTask, aTask.ID, aTask.Status)
	}
	if aTask.CreatedAt.IsZero() {
		aTask.CreatedAt = s.now()
	}
	if err := s.tasks.Create(ctx, aTask); err != nil {
		return err
	}
	if err := s.queue.Publish(ctx, aTask.Ticket()); err != nil {
		_ = s.tasks.Delete(context.WithoutCancel(ctx), aTask.ID)
		return fmt.Errorf("failed to queue task %s: %w", aTask.ID, err)
	}
	s.logger.Debug("task submitted", zap.String("task", aTask.ID), zap.Int("priority", aTask.Priority))
	return nil
}

// RegisterResource adds a fully available resource
func (s *Service) RegisterResource(id string, capacity int, resourceType string) error {
	return s.registry.Register(id, capacity, resourceType)
}

// Heartbeat refreshes the liveness of resource id
func (s *Service) Heartbeat(id string) error {
	return s.registry.Heartbeat(id)
}

// Resource returns a copy of resource id
func (s *Service) Resource(id string) (*resource.Resource, error) {
	return s.registry.Resource(id)
}

// Resources returns copies of all resources in registration order
func (s *Service) Resources() []*resource.Resource {
	return s.registry.List()
}

// Status returns the task status, task.StatusUnknown for an unknown id.
func (s *Service) Status(id string) task.Status {
	return s.tasks.Status(id)
}

// Metrics returns a snapshot of the performance counters
func (s *Service) Metrics() metrics.Snapshot {
	return s.metrics.Snapshot()
}

// OnMetrics registers a callback receiving a snapshot after every finished task
func (s *Service) OnMetrics(cb func(metrics.Snapshot)) {
	s.metrics.OnChange(cb)
}

// Task returns a copy of task id
func (s *Service) Task(ctx context.Context, id string) (*task.Task, error) {
	return s.tasks.Load(ctx, id)
}

// Tasks returns copies of tasks in submission order, optionally filtered by status
func (s *Service) Tasks(ctx context.Context, statuses ...task.Status) ([]*task.Task, error) {
	if len(statuses) == 0 {
		return s.tasks.List(ctx)
	}
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}
	return s.tasks.List(ctx, dao.NewParameter("Status", values...))
}

// Result returns the outcome of a finished task: the result of a completed
// task, or the error of a failed one. Unfinished tasks return ErrNotFinished.
func (s *Service) Result(ctx context.Context, id string) (any, error) {
	aTask, err := s.tasks.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch aTask.Status {
	case task.StatusCompleted:
		return aTask.Result, nil
	case task.StatusFailed:
		return nil, aTask.Err
	default:
		return nil, fmt.Errorf("%w: %s is %s", ErrNotFinished, id, aTask.Status)
	}
}

// Wait polls task id until it finishes or timeout elapses. On timeout the
// last observed copy is returned with an error.
func (s *Service) Wait(ctx context.Context, id string, timeout time.Duration) (*task.Task, error) {
	started := clock.Now()
	for {
		aTask, err := s.tasks.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if aTask.Status.IsTerminal() {
			return aTask, nil
		}
		if clock.Since(started) > timeout {
			return aTask, fmt.Errorf("timeout waiting for task %q", id)
		}
		select {
		case <-ctx.Done():
			return aTask, ctx.Err()
		case <-time.After(waitPollInterval):
		}
	}
}
