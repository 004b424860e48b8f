// Package worker provides a bounded task pool shared by the background
// jobs. Submission is non-blocking: a full queue rejects the task
// rather than stalling the scheduler.
package worker

import (
	"context"
	"errors"
	"sync"

	"curator/internal/logger"
)

// ErrQueueFull is returned when the task queue has no capacity left.
var ErrQueueFull = errors.New("worker queue full")

// Task is one unit of background work. The context is the pool's run
// context; tasks must return promptly once it is cancelled.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool runs submitted tasks on a fixed number of workers.
type Pool struct {
	size  int
	tasks chan Task

	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// NewPool creates a pool with the given worker count and queue depth.
func NewPool(size, queueDepth int) *Pool {
	if size < 1 {
		size = 1
	}
	if queueDepth < 1 {
		queueDepth = size
	}
	return &Pool{
		size:  size,
		tasks: make(chan Task, queueDepth),
	}
}

// Start launches the workers. They run until ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	logger.Info("worker pool started", "workers", p.size, "queue", cap(p.tasks))
}

// Submit enqueues a task without blocking. A full queue returns
// ErrQueueFull; the caller decides whether to drop or retry later.
func (p *Pool) Submit(task Task) error {
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Wait blocks until all workers have exited. Call after cancelling the
// context passed to Start.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Pending returns the number of queued tasks.
func (p *Pool) Pending() int {
	return len(p.tasks)
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-p.tasks:
			if err := task.Run(ctx); err != nil {
				// Only the pool's own shutdown retires a worker; a task
				// surfacing a cancellation of its own is just a failure.
				if ctx.Err() != nil {
					return
				}
				logger.Error("task failed", err, "task", task.Name, "worker", id)
			}
		}
	}
}
