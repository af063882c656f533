package throttle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Operation is a unit of work submitted to a Queue.
type Operation[T any] func(ctx context.Context) (T, error)

// Queue serializes scheduled operations in FIFO order and enforces a
// cooldown between the end of one operation and the start of the next.
// At most one operation is running or cooling down at any time.
// The zero value is not usable; construct with NewQueue.
type Queue struct {
	mu       sync.Mutex
	pending  []func()
	busy     bool
	cooldown time.Duration
	logFn    func() *slog.Logger
}

// QueueOption is a functional option for NewQueue.
type QueueOption func(*Queue)

// WithQueueLogger lazily resolves the logger used for queue lifecycle
// events. A nil-returning logFn keeps the queue silent. Operation errors
// are never logged by the queue.
func WithQueueLogger(logFn func() *slog.Logger) QueueOption {
	return func(q *Queue) {
		q.logFn = logFn
	}
}

// NewQueue returns an idle Queue that waits cooldown after every operation.
func NewQueue(cooldown time.Duration, optFns ...QueueOption) (*Queue, error) {
	if cooldown <= 0 {
		return nil, fmt.Errorf("cooldown[%s] %w", cooldown, ErrMustNotBeZero)
	}

	q := &Queue{
		cooldown: cooldown,
		logFn:    func() *slog.Logger { return nil },
	}
	for _, opt := range optFns {
		opt(q)
	}

	return q, nil
}

// Schedule appends op to the tail of q and returns a Result that settles
// once q has run it. ctx is handed to op unchanged; the queue does not
// skip or withdraw a task whose context has ended.
func Schedule[T any](ctx context.Context, q *Queue, op Operation[T]) *Result[T] {
	r := newResult[T]()

	q.enqueue(func() {
		r.settle(ctx, op)
	})

	return r
}

// Cooldown returns the delay enforced between operations.
func (q *Queue) Cooldown() time.Duration {
	return q.cooldown
}

// Len returns the number of tasks waiting to start.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending)
}

// State reports whether a task is currently running or cooling down.
func (q *Queue) State() QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.busy {
		return Busy
	}

	return Idle
}

func (q *Queue) enqueue(task func()) {
	q.mu.Lock()
	q.pending = append(q.pending, task)
	depth, busy := len(q.pending), q.busy
	q.mu.Unlock()

	if logger := q.logFn(); logger != nil && busy {
		logger.Debug("throttle queue waiting", "depth", depth, "cooldown", q.cooldown.String())
	}

	q.drain()
}

// drain is the single Idle -> Busy transition. It does nothing while a
// task is in flight or when nothing is pending, so it is safe to call
// redundantly.
func (q *Queue) drain() {
	q.mu.Lock()
	if q.busy || len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}

	q.busy = true
	task := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	q.mu.Unlock()

	go q.process(task)
}

// process runs task, holds the Busy state for the cooldown, then releases
// it and retriggers drain.
func (q *Queue) process(task func()) {
	task()

	timer := time.NewTimer(q.cooldown)
	<-timer.C

	q.mu.Lock()
	q.busy = false
	depth := len(q.pending)
	q.mu.Unlock()

	if logger := q.logFn(); logger != nil && depth > 0 {
		logger.Debug("throttle cooldown complete", "depth", depth)
	}

	q.drain()
}
