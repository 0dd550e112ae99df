package task

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when a lifecycle method is called from a
// state that does not allow it.
var ErrInvalidTransition = errors.New("task: invalid state transition")

// Task represents a unit of work submitted to the scheduler
type Task struct {
	ID           string     `json:"id" yaml:"id"`
	Priority     int        `json:"priority" yaml:"priority"`
	ResourceType string     `json:"resourceType,omitempty" yaml:"resourceType,omitempty"`
	Status       Status     `json:"status" yaml:"status"`
	Args         Args       `json:"args,omitempty" yaml:"args,omitempty"`
	Item         WorkItem   `json:"-" yaml:"-"`
	CreatedAt    time.Time  `json:"createdAt" yaml:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty" yaml:"startedAt,omitempty"`
	EndedAt      *time.Time `json:"endedAt,omitempty" yaml:"endedAt,omitempty"`
	ResourceID   string     `json:"resourceId,omitempty" yaml:"resourceId,omitempty"`
	Result       any        `json:"result,omitempty" yaml:"result,omitempty"`
	Err          error      `json:"-" yaml:"-"`
	Error        string     `json:"error,omitempty" yaml:"error,omitempty"`
	Attempts     int        `json:"attempts,omitempty" yaml:"attempts,omitempty"`
}

// New creates a pending task
func New(id string, item WorkItem, args Args, priority int, opts ...Option) *Task {
	ret := &Task{
		ID:       id,
		Item:     item,
		Args:     args,
		Priority: priority,
		Status:   StatusPending,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Ticket returns the queue entry for this task.
func (t *Task) Ticket() *Ticket {
	return &Ticket{TaskID: t.ID, Priority: t.Priority}
}

// Start marks the task as running on resourceID
func (t *Task) Start(resourceID string, at time.Time) error {
	if t.Status != StatusPending {
		return fmt.Errorf("%w: start %s from %s", ErrInvalidTransition, t.ID, t.Status)
	}
	t.StartedAt = &at
	t.ResourceID = resourceID
	t.Status = StatusRunning
	return nil
}

// Complete marks the task as completed with result
func (t *Task) Complete(result any, at time.Time) error {
	if t.Status != StatusRunning {
		return fmt.Errorf("%w: complete %s from %s", ErrInvalidTransition, t.ID, t.Status)
	}
	t.EndedAt = &at
	t.Result = result
	t.Status = StatusCompleted
	return nil
}

// Fail marks the task as failed with err
func (t *Task) Fail(err error, at time.Time) error {
	if t.Status != StatusRunning {
		return fmt.Errorf("%w: fail %s from %s", ErrInvalidTransition, t.ID, t.Status)
	}
	if err == nil {
		err = errors.New("unspecified failure")
	}
	t.EndedAt = &at
	t.Err = err
	t.Error = err.Error()
	t.Status = StatusFailed
	return nil
}

// Release clears the resource assignment.
func (t *Task) Release() {
	t.ResourceID = ""
}

// Duration returns the execution time of a finished task, zero otherwise.
func (t *Task) Duration() time.Duration {
	if t.StartedAt == nil || t.EndedAt == nil {
		return 0
	}
	return t.EndedAt.Sub(*t.StartedAt)
}

// Clone creates a copy of the task so that the caller can mutate it without
// affecting the stored instance. The work item and the result are shared.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	clone := *t
	if t.Args != nil {
		clone.Args = make(Args, len(t.Args))
		for k, v := range t.Args {
			clone.Args[k] = v
		}
	}
	if t.StartedAt != nil {
		at := *t.StartedAt
		clone.StartedAt = &at
	}
	if t.EndedAt != nil {
		at := *t.EndedAt
		clone.EndedAt = &at
	}
	return &clone
}

// Ticket is the priority queue payload referencing a task.
type Ticket struct {
	TaskID   string `json:"taskId"`
	Priority int    `json:"priority"`
}

// PriorityOf extracts the ticket priority.
func PriorityOf(t *Ticket) int {
	return t.Priority
}
