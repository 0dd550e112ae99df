package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/acp/model/task"
	"github.com/viant/acp/service/dao"
	"github.com/viant/acp/service/dao/criteria"
)

// Service implements the in-memory task table. All operations are
// thread-safe and return **copies** of the stored tasks so that callers can
// mutate them without racing the workers.
type Service struct {
	tasks       map[string]*task.Task
	order       []string
	finished    []string
	maxFinished int
	mux         sync.RWMutex
}

// Compile-time check that Service implements the generic DAO interface.
var _ dao.Service[string, task.Task] = (*Service)(nil)

// Option customises the task table.
type Option func(s *Service)

// WithMaxFinished caps the number of retained completed/failed tasks; the
// oldest finished tasks are evicted first. Zero keeps everything.
func WithMaxFinished(limit int) Option {
	return func(s *Service) {
		s.maxFinished = limit
	}
}

// New constructor.
func New(options ...Option) *Service {
	ret := &Service{tasks: map[string]*task.Task{}}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Create inserts a new task, failing with dao.ErrAlreadyExists on a
// duplicate id.
func (s *Service) Create(_ context.Context, t *task.Task) error {
	if t == nil {
		return dao.ErrNilEntity
	}
	if t.ID == "" {
		return dao.ErrInvalidID
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.tasks[t.ID]; ok {
		return fmt.Errorf("%w: task %s", dao.ErrAlreadyExists, t.ID)
	}
	s.tasks[t.ID] = t.Clone()
	s.order = append(s.order, t.ID)
	s.track(t)
	return nil
}

// Save persists (a clone of) the supplied task.
func (s *Service) Save(_ context.Context, t *task.Task) error {
	if t == nil {
		return dao.ErrNilEntity
	}
	if t.ID == "" {
		return dao.ErrInvalidID
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	prev, ok := s.tasks[t.ID]
	if !ok {
		s.order = append(s.order, t.ID)
	}
	s.tasks[t.ID] = t.Clone()
	if !ok || !prev.Status.IsTerminal() {
		s.track(t)
	}
	return nil
}

// track records newly finished tasks and evicts the oldest ones beyond the
// retention limit. Callers hold the lock.
func (s *Service) track(t *task.Task) {
	if !t.Status.IsTerminal() {
		return
	}
	s.finished = append(s.finished, t.ID)
	if s.maxFinished <= 0 {
		return
	}
	for len(s.finished) > s.maxFinished {
		evicted := s.finished[0]
		s.finished = s.finished[1:]
		delete(s.tasks, evicted)
		s.removeOrder(evicted)
	}
}

func (s *Service) removeOrder(id string) {
	for i, candidate := range s.order {
		if candidate == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Load retrieves a copy of the task or dao.ErrNotFound.
func (s *Service) Load(_ context.Context, id string) (*task.Task, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mux.RLock()
	t, ok := s.tasks[id]
	s.mux.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: task %s", dao.ErrNotFound, id)
	}
	return t.Clone(), nil
}

// Status returns the task status, or task.StatusUnknown for absent ids.
func (s *Service) Status(id string) task.Status {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if t, ok := s.tasks[id]; ok {
		return t.Status
	}
	return task.StatusUnknown
}

// Delete removes a task.
func (s *Service) Delete(_ context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return fmt.Errorf("%w: task %s", dao.ErrNotFound, id)
	}
	delete(s.tasks, id)
	s.removeOrder(id)
	for i, candidate := range s.finished {
		if candidate == id {
			s.finished = append(s.finished[:i], s.finished[i+1:]...)
			break
		}
	}
	return nil
}

// List returns copies of tasks in submission order. A "Status" parameter
// filters by one or more statuses.
func (s *Service) List(_ context.Context, parameters ...*dao.Parameter) ([]*task.Task, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	out := make([]*task.Task, 0, len(s.order))
	for _, id := range s.order {
		t := s.tasks[id]
		if !criteria.FilterBy("Status", string(t.Status), parameters) {
			continue
		}
		out = append(out, t.Clone())
	}
	return out, nil
}

// Len returns the number of stored tasks.
func (s *Service) Len() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return len(s.tasks)
}
