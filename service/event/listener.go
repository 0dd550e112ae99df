package event

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Listener delivers published events to a handler on its own goroutine.
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	logger    *zap.Logger
	mu        sync.Mutex
	cancelFn  context.CancelFunc
	done      chan struct{}
}

// NewListener creates a listener
func NewListener[T any](publisher *Publisher[T], handler func(*Event[T]), logger *zap.Logger) *Listener[T] {
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		logger:    logger,
	}
}

// Start launches delivery; a started listener ignores further calls.
func (l *Listener[T]) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancelFn != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancelFn = cancel
	l.done = make(chan struct{})
	go l.run(ctx, l.done)
}

func (l *Listener[T]) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		event, err := l.publisher.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Warn("failed to consume event", zap.Error(err))
			continue
		}
		if event != nil {
			l.handler(event)
		}
	}
}

// Stop ends delivery after handing over the events already queued.
func (l *Listener[T]) Stop() {
	l.mu.Lock()
	cancel, done := l.cancelFn, l.done
	l.cancelFn = nil
	l.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	drainCtx, drainCancel := context.WithCancel(context.Background())
	drainCancel()
	for {
		event, _ := l.publisher.Consume(drainCtx)
		if event == nil {
			return
		}
		l.handler(event)
	}
}
