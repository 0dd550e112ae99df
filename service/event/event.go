package event

import (
	"time"

	"github.com/viant/acp/model/task"
)

// Context describes what happened to which task.
type Context struct {
	TaskID      string      `json:"taskID"`
	EventType   string      `json:"eventType"`
	Status      task.Status `json:"status"`
	ResourceID  string      `json:"resourceID,omitempty"`
	Priority    int         `json:"priority"`
	Attempts    int         `json:"attempts,omitempty"`
	TimeTakenMs int         `json:"timeTakenMs,omitempty"`
}

// Event is a lifecycle notification with a typed payload.
type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

// NewEvent creates an event
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}

// TaskEvent is the event emitted by the scheduler for a task transition.
type TaskEvent = Event[*task.Task]

// NewTaskEvent creates an event carrying a copy of t.
func NewTaskEvent(eventType string, t *task.Task) *TaskEvent {
	aContext := &Context{
		TaskID:     t.ID,
		EventType:  eventType,
		Status:     t.Status,
		ResourceID: t.ResourceID,
		Priority:   t.Priority,
		Attempts:   t.Attempts,
	}
	if d := t.Duration(); d > 0 {
		aContext.TimeTakenMs = int(d.Milliseconds())
	}
	return NewEvent(aContext, t.Clone())
}
