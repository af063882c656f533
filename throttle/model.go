package throttle

import (
	"errors"
	"time"
)

// DefaultCooldown keeps the queue under three calls per second with some
// headroom.
const DefaultCooldown = 350 * time.Millisecond

var (
	ErrMustNotBeZero     = errors.New("must be greater than zero")
	ErrWaitingFailed     = errors.New("limiter waiting failed")
	ErrContextEnded      = errors.New("throttle context ended")
	ErrOperationPanicked = errors.New("scheduled operation panicked")
)

// QueueState reports whether a Queue is running or cooling down a task.
type QueueState int

const (
	Idle QueueState = iota
	Busy
)

func (s QueueState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Busy:
		return "busy"
	default:
		return "unknown"
	}
}

// Limit describes a token bucket: Requests tokens are refilled evenly
// over Per, and at most Burst may be spent at once.
type Limit struct {
	Requests int
	Per      time.Duration
	Burst    int
}
