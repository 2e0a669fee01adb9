package stream

import (
	"sync"

	"github.com/kongo-sim/kongo-sim/sim"
)

// readingQueue is a thread-safe, unbounded FIFO of readings for one location.
//
// Enqueue never blocks, so the tick loop is never held up by a slow consumer.
// A buffered signal channel of size 1 lets the consumer wait with select
// alongside ctx.Done().
type readingQueue struct {
	mu       sync.Mutex
	readings []sim.Reading
	closed   bool
	signal   chan struct{}
}

func newReadingQueue() *readingQueue {
	return &readingQueue{
		readings: make([]sim.Reading, 0, 64),
		signal:   make(chan struct{}, 1),
	}
}

// enqueue appends r. Returns false if the queue is closed.
func (q *readingQueue) enqueue(r sim.Reading) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.readings = append(q.readings, r)

	// non-blocking: the buffer coalesces signals
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// tryDequeue removes the oldest reading without blocking.
// drained is true when the queue is closed and empty.
func (q *readingQueue) tryDequeue() (r sim.Reading, ok, drained bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.readings) == 0 {
		return sim.Reading{}, false, q.closed
	}
	r = q.readings[0]
	if len(q.readings) == 1 {
		q.readings = q.readings[:0]
	} else {
		q.readings = q.readings[1:]
	}
	return r, true, false
}

// wait returns a channel that fires when readings may be available or the
// queue was closed.
func (q *readingQueue) wait() <-chan struct{} {
	return q.signal
}

func (q *readingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.readings)
}

// close stops further enqueues and wakes the consumer. Queued readings stay
// available to tryDequeue.
func (q *readingQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
