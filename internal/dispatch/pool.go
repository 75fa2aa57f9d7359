package dispatch

import (
	"sync"
)

// Handler processes a single item to completion. The worker index is in range [0, n).
type Handler[T any] func(worker int, item T)

// PanicHandler is called with the recovered value when a Handler panics. The worker
// keeps running afterward.
type PanicHandler[T any] func(worker int, item T, recovered any)

// Pool runs a fixed number of workers, each of them taking items from the queue one
// by one. An item is never seen by more than one worker.
type Pool[T any] struct {
	queue   *Queue[T]
	workers int
	handle  Handler[T]
	onPanic PanicHandler[T]
	wg      sync.WaitGroup
}

func NewPool[T any](queue *Queue[T], workers int, handle Handler[T]) *Pool[T] {
	return &Pool[T]{
		queue:   queue,
		workers: max(workers, 1),
		handle:  handle,
	}
}

// OnPanic sets the callback for handler panics.
func (p *Pool[T]) OnPanic(cb PanicHandler[T]) *Pool[T] {
	p.onPanic = cb
	return p
}

// Start spawns the workers. They exit once the queue is closed and drained.
func (p *Pool[T]) Start() {
	p.wg.Add(p.workers)

	for i := range p.workers {
		go p.work(i)
	}
}

// Wait blocks until all the workers exit.
func (p *Pool[T]) Wait() {
	p.wg.Wait()
}

func (p *Pool[T]) work(worker int) {
	defer p.wg.Done()

	for {
		item, ok := p.queue.Dequeue()
		if !ok {
			return
		}

		p.process(worker, item)
	}
}

func (p *Pool[T]) process(worker int, item T) {
	defer func() {
		if r := recover(); r != nil && p.onPanic != nil {
			p.onPanic(worker, item, r)
		}
	}()

	p.handle(worker, item)
}
