// Bounded frame queue with drop-when-full semantics
package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrQueueEmpty is returned by Take when no frame arrived before the timeout
	ErrQueueEmpty = errors.New("frame queue empty")
	// ErrQueueClosed is returned by Take once the queue is closed and drained
	ErrQueueClosed = errors.New("frame queue closed")
)

// FrameQueue is a fixed-capacity FIFO of frames shared by one producer and
// one consumer. Offer never blocks: a frame offered while the queue is full
// is dropped and counted.
type FrameQueue struct {
	mu     sync.Mutex
	buf    []*Frame
	head   int
	size   int
	closed bool

	// ready holds at most one wake-up token for a consumer waiting in Take
	ready chan struct{}

	offered uint64
	dropped uint64
}

// NewFrameQueue creates a queue holding at most capacity frames
func NewFrameQueue(capacity int) *FrameQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &FrameQueue{
		buf:   make([]*Frame, capacity),
		ready: make(chan struct{}, 1),
	}
}

// Offer appends f if there is room. It returns false when the frame was
// dropped because the queue is full or closed; the caller keeps ownership
// of a dropped frame.
func (q *FrameQueue) Offer(f *Frame) bool {
	atomic.AddUint64(&q.offered, 1)

	q.mu.Lock()
	if q.closed || q.size == len(q.buf) {
		q.mu.Unlock()
		atomic.AddUint64(&q.dropped, 1)
		return false
	}
	q.buf[(q.head+q.size)%len(q.buf)] = f
	q.size++
	q.mu.Unlock()

	q.signal()
	return true
}

// TryTake removes and returns the oldest frame. It never blocks and leaves
// the queue untouched when empty.
func (q *FrameQueue) TryTake() (*Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// Take waits up to timeout for a frame
func (q *FrameQueue) Take(ctx context.Context, timeout time.Duration) (*Frame, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		f, ok := q.popLocked()
		closed := q.closed
		q.mu.Unlock()

		if ok {
			return f, nil
		}
		if closed {
			return nil, ErrQueueClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, ErrQueueEmpty
		case <-q.ready:
		}
	}
}

// Close marks end of stream. Frames already queued stay takeable.
func (q *FrameQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

// Closed reports whether Close was called
func (q *FrameQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Drain removes and returns every queued frame, oldest first
func (q *FrameQueue) Drain() []*Frame {
	q.mu.Lock()
	defer q.mu.Unlock()

	frames := make([]*Frame, 0, q.size)
	for {
		f, ok := q.popLocked()
		if !ok {
			return frames
		}
		frames = append(frames, f)
	}
}

// Len returns the number of queued frames
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the fixed capacity
func (q *FrameQueue) Cap() int {
	return len(q.buf)
}

// Offered returns the total number of Offer calls
func (q *FrameQueue) Offered() uint64 {
	return atomic.LoadUint64(&q.offered)
}

// Dropped returns the number of frames rejected by Offer
func (q *FrameQueue) Dropped() uint64 {
	return atomic.LoadUint64(&q.dropped)
}

func (q *FrameQueue) popLocked() (*Frame, bool) {
	if q.size == 0 {
		return nil, false
	}
	f := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return f, true
}

func (q *FrameQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
