package memory

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/viant/acp/internal/clock"
	"github.com/viant/acp/internal/idgen"
	"github.com/viant/acp/service/messaging"
)

// ErrAlreadyProcessed is returned by a second Ack or Nack of the same message.
var ErrAlreadyProcessed = errors.New("message already processed")

// Config for memory queue implementation
type Config struct {
	// PollTimeout bounds how long Consume waits for a message.
	PollTimeout time.Duration
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		PollTimeout: time.Second,
	}
}

// Message implements messaging.Message for the in-memory priority queue
type Message[T any] struct {
	id        string
	payload   T
	priority  int
	seq       uint64
	queue     *Queue[T]
	requeues  int
	mu        sync.Mutex
	processed bool
	createdAt time.Time
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.payload
}

// ID returns the message id
func (m *Message[T]) ID() string {
	return m.id
}

// CreatedAt returns when the payload was first published
func (m *Message[T]) CreatedAt() time.Time {
	return m.createdAt
}

// Requeues returns how many times the payload went back to the queue
func (m *Message[T]) Requeues() int {
	return m.requeues
}

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return ErrAlreadyProcessed
	}
	m.processed = true
	return nil
}

// Nack puts the payload back at its original priority behind entries of the
// same priority already queued. The payload is never dropped.
func (m *Message[T]) Nack(_ error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return ErrAlreadyProcessed
	}
	m.processed = true
	m.queue.push(&Message[T]{
		id:        m.id,
		payload:   m.payload,
		priority:  m.priority,
		queue:     m.queue,
		requeues:  m.requeues + 1,
		createdAt: m.createdAt,
	}, true)
	return nil
}

// Queue implements messaging.Queue as a priority queue: the lowest priority
// value is consumed first, equal priorities in publication order.
type Queue[T any] struct {
	config     Config
	priorityOf func(*T) int
	mu         sync.Mutex
	items      entries[T]
	seq        uint64
	requeued   int
	signal     chan struct{}
}

// NewQueue creates a new in-memory priority queue. priorityOf extracts the
// priority of a payload; nil treats every payload as priority 0.
func NewQueue[T any](config Config, priorityOf func(*T) int) *Queue[T] {
	if config.PollTimeout <= 0 {
		config.PollTimeout = DefaultConfig().PollTimeout
	}
	if priorityOf == nil {
		priorityOf = func(*T) int { return 0 }
	}
	return &Queue[T]{
		config:     config,
		priorityOf: priorityOf,
		signal:     make(chan struct{}, 1),
	}
}

// Publish adds a new item to the queue
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if t == nil {
		return fmt.Errorf("payload was nil")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	q.push(&Message[T]{
		id:        idgen.New(),
		payload:   *t,
		priority:  q.priorityOf(t),
		queue:     q,
		createdAt: clock.Now(),
	}, false)
	return nil
}

func (q *Queue[T]) push(msg *Message[T], requeue bool) {
	q.mu.Lock()
	q.seq++
	msg.seq = q.seq
	heap.Push(&q.items, msg)
	if requeue {
		q.requeued++
	}
	q.mu.Unlock()
	q.notify()
}

func (q *Queue[T]) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *Queue[T]) pop() *Message[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	msg := heap.Pop(&q.items).(*Message[T])
	if len(q.items) > 0 {
		// another consumer may be parked on the signal
		q.notify()
	}
	return msg
}

// Consume retrieves the most urgent message, waiting at most PollTimeout.
// It returns (nil, nil) when the wait elapses.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	if msg := q.pop(); msg != nil {
		return msg, nil
	}
	timer := time.NewTimer(q.config.PollTimeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, nil
		case <-q.signal:
			if msg := q.pop(); msg != nil {
				return msg, nil
			}
		}
	}
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Requeued returns the number of Nack re-insertions so far
func (q *Queue[T]) Requeued() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.requeued
}

// entries is a heap ordered by (priority, seq).
type entries[T any] []*Message[T]

func (e entries[T]) Len() int { return len(e) }

func (e entries[T]) Less(i, j int) bool {
	if e[i].priority != e[j].priority {
		return e[i].priority < e[j].priority
	}
	return e[i].seq < e[j].seq
}

func (e entries[T]) Swap(i, j int) { e[i], e[j] = e[j], e[i] }

func (e *entries[T]) Push(x any) { *e = append(*e, x.(*Message[T])) }

func (e *entries[T]) Pop() any {
	old := *e
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*e = old[:n-1]
	return item
}

// ensure Queue implements messaging.Queue interface
var _ messaging.Queue[any] = (*Queue[any])(nil)
