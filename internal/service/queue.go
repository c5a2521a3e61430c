package service

import (
	"sync"

	"github.com/quillback/waystone/internal/protocol"
)

// submission pairs a request with the channel its response goes back on.
// The reply channel is buffered (size 1) so the loop never blocks on a
// caller that gave up.
type submission struct {
	req   *protocol.Request
	reply chan *protocol.Response
}

// commandQueue is a thread-safe FIFO of submissions.
//
// The queue is unbounded: transports enqueue from their own goroutines
// and must never block on engine throughput. A buffered size-1 signal
// channel coalesces wakeups so the Run loop can select on it alongside
// context cancellation.
type commandQueue struct {
	mu      sync.Mutex
	pending []submission
	closed  bool
	signal  chan struct{}
}

func newCommandQueue() *commandQueue {
	return &commandQueue{
		pending: make([]submission, 0, 16),
		signal:  make(chan struct{}, 1),
	}
}

// enqueue adds a submission to the back of the queue.
// Returns false if the queue is closed.
func (q *commandQueue) enqueue(s submission) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.pending = append(q.pending, s)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// tryDequeue pops the front submission without blocking.
func (q *commandQueue) tryDequeue() (submission, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return submission{}, false
	}
	s := q.pending[0]
	// Nil out the slot so the backing array does not retain the request.
	q.pending[0] = submission{}
	if len(q.pending) == 1 {
		q.pending = q.pending[:0]
	} else {
		q.pending = q.pending[1:]
	}
	return s, true
}

// wait returns the wakeup channel for use in the Run loop's select. The
// channel closes when the queue closes.
func (q *commandQueue) wait() <-chan struct{} {
	return q.signal
}

func (q *commandQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// close refuses further submissions and wakes all waiters.
func (q *commandQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
