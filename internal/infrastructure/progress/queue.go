// Package progress is an unbounded, non-blocking message queue used as a
// ProgressSink by streaming callers.
package progress

import (
	"context"
	"sync"
)

type Queue struct {
	mu     sync.Mutex
	items  []string
	closed bool
	signal chan struct{}
}

func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

// Push never blocks. Messages pushed after Close are dropped.
func (q *Queue) Push(message string) {
	if q == nil {
		return
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, message)
	q.mu.Unlock()
	q.notify()
}

// Close marks the end of the stream; Next drains what is left and then
// reports done.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notify()
}

// Next blocks until a message is available, the queue is closed and empty,
// or ctx ends. ok is false when no more messages will arrive.
func (q *Queue) Next(ctx context.Context) (string, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items[0] = ""
			q.items = q.items[1:]
			q.mu.Unlock()
			return msg, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return "", false
		}

		select {
		case <-ctx.Done():
			return "", false
		case <-q.signal:
		}
	}
}

// Drain returns every pending message without waiting.
func (q *Queue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
