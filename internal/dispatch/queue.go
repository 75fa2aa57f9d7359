package dispatch

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("queue is closed")

// Queue is a bounded FIFO ring. Producers block while it's full, consumers block while
// it's empty. Both states are guarded by a single mutex with two conditions.
type Queue[T any] struct {
	data     []T
	head     int
	tail     int
	size     int
	closed   bool
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
}

func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}

	q := &Queue[T]{
		data: make([]T, capacity),
	}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)

	return q
}

// Enqueue blocks while the queue is full. ErrClosed is returned if the queue is or gets
// closed meanwhile, the value isn't enqueued then.
func (q *Queue[T]) Enqueue(val T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == len(q.data) && !q.closed {
		q.notFull.Wait()
	}

	if q.closed {
		return ErrClosed
	}

	q.data[q.tail] = val
	q.tail = (q.tail + 1) % len(q.data)
	q.size++
	q.notEmpty.Signal()

	return nil
}

// Dequeue blocks while the queue is empty. Values enqueued before closing are still
// returned, ok is false only when the queue is both closed and drained.
func (q *Queue[T]) Dequeue() (val T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == 0 && !q.closed {
		q.notEmpty.Wait()
	}

	if q.size == 0 {
		return val, false
	}

	var zero T
	val = q.data[q.head]
	q.data[q.head] = zero
	q.head = (q.head + 1) % len(q.data)
	q.size--
	q.notFull.Signal()

	return val, true
}

// Close wakes up everyone waiting. It's safe to call it multiple times.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.size
}

func (q *Queue[T]) Cap() int {
	return len(q.data)
}
