package visualization

import (
	"context"
	"sync"
)

// EventLoop runs tasks one at a time, in submission order, on a single
// goroutine. It is the task queue through which slider changes and renders
// are serialised when events originate on other goroutines.
type EventLoop struct {
	tasks chan func()
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewEventLoop starts a loop whose queue holds up to buffer pending tasks.
func NewEventLoop(buffer int) *EventLoop {
	l := &EventLoop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *EventLoop) run() {
	defer close(l.done)
	for task := range l.tasks {
		task()
	}
}

// Post queues fn without waiting for it to run.
func (l *EventLoop) Post(ctx context.Context, fn func()) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}

	select {
	case l.tasks <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do queues fn and waits for its result. If ctx ends after fn was queued,
// fn still runs to completion; only the wait is abandoned. Do must not be
// called from a task running on the same loop.
func (l *EventLoop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if err := l.Post(ctx, func() { result <- fn() }); err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks, runs everything already queued and waits for
// the loop goroutine to exit. It is safe to call more than once.
func (l *EventLoop) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.tasks)
	}
	l.mu.Unlock()
	<-l.done
}
