package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrClosed is returned by Put after Close, and by Get once the queue
	// is closed and every buffered frame has been drained.
	ErrClosed = errors.New("queue is closed")

	// ErrTimeout is returned by Get when no frame arrives within the wait.
	ErrTimeout = errors.New("queue receive timed out")
)

// DefaultCapacity bounds the number of buffered frames between the
// producer and the consumer.
const DefaultCapacity = 200

// Queue is a bounded FIFO of synthesized audio frames. The producer blocks
// on Put when the queue is full, which propagates backpressure all the way
// up to the synthesis stream. Close marks the end of the stream; the
// consumer keeps receiving buffered frames and then sees ErrClosed.
type Queue struct {
	frames chan []byte
	done   chan struct{}

	closeOnce sync.Once
}

// New creates a queue holding at most capacity frames. A capacity below one
// falls back to DefaultCapacity.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Queue{
		frames: make(chan []byte, capacity),
		done:   make(chan struct{}),
	}
}

// Put appends a frame, blocking while the queue is full. It returns
// ErrClosed once the queue has been closed and ctx.Err() if the context is
// cancelled during the wait. A Put racing Close may still succeed; the
// consumer drains such frames before it observes ErrClosed.
func (q *Queue) Put(ctx context.Context, frame []byte) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}

	select {
	case q.frames <- frame:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get removes and returns the oldest frame, waiting up to timeout for one
// to arrive. It returns ErrTimeout when the wait expires and ErrClosed once
// the queue is closed and empty. Buffered frames are always delivered
// before ErrClosed.
func (q *Queue) Get(timeout time.Duration) ([]byte, error) {
	select {
	case frame := <-q.frames:
		return frame, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case frame := <-q.frames:
		return frame, nil
	case <-q.done:
		// Close raced a delivery; prefer the frame.
		select {
		case frame := <-q.frames:
			return frame, nil
		default:
			return nil, ErrClosed
		}
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// Close marks the end of the stream. It is safe to call from multiple
// goroutines and multiple times; only the first call has any effect.
// Blocked Put calls return ErrClosed, and Get keeps returning buffered
// frames until the queue is drained.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// Len returns the number of buffered frames.
func (q *Queue) Len() int {
	return len(q.frames)
}
