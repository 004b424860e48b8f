package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := NewPool(4, 16)
	pool.Start(ctx)

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		err := pool.Submit(Task{
			Name: "count",
			Run: func(ctx context.Context) error {
				defer wg.Done()
				ran.Add(1)
				return nil
			},
		})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	wg.Wait()
	if got := ran.Load(); got != 10 {
		t.Errorf("expected 10 tasks run, got %d", got)
	}

	cancel()
	pool.Wait()
}

func TestPoolRejectsWhenFull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One worker, one queue slot; the blocker occupies the worker.
	pool := NewPool(1, 1)
	pool.Start(ctx)

	release := make(chan struct{})
	started := make(chan struct{})
	_ = pool.Submit(Task{Name: "blocker", Run: func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}})
	<-started

	// Fill the single queue slot.
	if err := pool.Submit(Task{Name: "queued", Run: func(ctx context.Context) error { return nil }}); err != nil {
		t.Fatalf("queued task should fit: %v", err)
	}

	// The next submission must be rejected, not block.
	err := pool.Submit(Task{Name: "overflow", Run: func(ctx context.Context) error { return nil }})
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}

	close(release)
	cancel()
	pool.Wait()
}

func TestPoolStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	pool := NewPool(2, 8)
	pool.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not exit after cancellation")
	}
}

func TestPoolSurvivesCanceledTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Single worker: if a context.Canceled return killed it, nothing
	// would run the follow-up task.
	pool := NewPool(1, 8)
	pool.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	_ = pool.Submit(Task{Name: "self-canceled", Run: func(ctx context.Context) error {
		defer wg.Done()
		inner, innerCancel := context.WithCancel(ctx)
		innerCancel()
		return inner.Err()
	}})

	var ran atomic.Bool
	_ = pool.Submit(Task{Name: "after", Run: func(ctx context.Context) error {
		defer wg.Done()
		ran.Store(true)
		return nil
	}})

	wg.Wait()
	if !ran.Load() {
		t.Error("a task's own cancellation must not retire the worker")
	}

	cancel()
	pool.Wait()
}

func TestPoolTaskErrorDoesNotKillWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := NewPool(1, 8)
	pool.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	_ = pool.Submit(Task{Name: "failing", Run: func(ctx context.Context) error {
		defer wg.Done()
		return errors.New("boom")
	}})

	var ran atomic.Bool
	_ = pool.Submit(Task{Name: "after", Run: func(ctx context.Context) error {
		defer wg.Done()
		ran.Store(true)
		return nil
	}})

	wg.Wait()
	if !ran.Load() {
		t.Error("worker should survive a failing task")
	}

	cancel()
	pool.Wait()
}
