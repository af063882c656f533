package throttle

import (
	"context"
	"fmt"
)

// Result is the eventual outcome of a scheduled Operation.
type Result[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newResult[T any]() *Result[T] {
	return &Result[T]{done: make(chan struct{})}
}

// Done returns a channel that is closed once the operation has settled.
func (r *Result[T]) Done() <-chan struct{} { return r.done }

// IsComplete reports whether the operation has settled, without blocking.
func (r *Result[T]) IsComplete() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the operation settles and returns its value and error.
func (r *Result[T]) Wait() (T, error) {
	<-r.done
	return r.value, r.err
}

// Await is Wait bounded by ctx. If ctx ends first its error is returned;
// the task itself stays queued and still runs.
func (r *Result[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-r.done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w awaiting result: %w", ErrContextEnded, ctx.Err())
	}
}

// settle runs op and records its outcome. A panic inside op settles the
// result with ErrOperationPanicked so the queue keeps moving.
func (r *Result[T]) settle(ctx context.Context, op Operation[T]) {
	defer close(r.done)
	defer func() {
		if rec := recover(); rec != nil {
			var zero T
			r.value = zero
			r.err = fmt.Errorf("%w: %v", ErrOperationPanicked, rec)
		}
	}()

	r.value, r.err = op(ctx)
}
