package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Pool is a bounded worker pool for blocking handlers. Its size is
// independent of a queue's worker ceiling: the ceiling bounds how many
// jobs are in flight, the pool bounds how many OS-thread-hungry
// computations run at once.
type Pool struct {
	size  int
	tasks chan func()

	wg         sync.WaitGroup
	cancelFunc context.CancelFunc
	mu         sync.Mutex
	started    bool
}

// DefaultPoolSize is used when a pool is created with a non-positive size.
const DefaultPoolSize = 4

// NewPool creates a worker pool with the given number of goroutines.
// If size <= 0, DefaultPoolSize is used.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &Pool{
		size:  size,
		tasks: make(chan func(), 100),
	}
}

// Start launches the worker goroutines. It returns an error if the pool
// is already running.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("worker pool already started")
	}

	workerCtx, cancel := context.WithCancel(ctx)
	p.cancelFunc = cancel

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(workerCtx, i)
	}

	p.started = true
	log.Debug().
		Str("component", "pool").
		Int("workers", p.size).
		Msg("worker pool started")

	return nil
}

// Submit hands a task to the pool. It returns false if the pool is not
// running or its backlog is full; callers fall back to running the task
// on their own goroutine.
func (p *Pool) Submit(task func()) bool {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return false
	}

	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Stop drains the workers and waits for in-flight tasks, respecting the
// context deadline.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	if p.cancelFunc != nil {
		p.cancelFunc()
	}
	p.started = false
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Debug().Str("component", "pool").Msg("worker pool stopped")
		return nil
	case <-ctx.Done():
		log.Warn().Str("component", "pool").Msg("worker pool shutdown timed out")
		return ctx.Err()
	}
}

// worker executes tasks until the pool context is cancelled. A task that
// is already running is never interrupted; cancellation only stops the
// worker from picking up new tasks.
func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	log.Debug().
		Str("component", "pool").
		Int("worker_id", id).
		Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-p.tasks:
			task()
		}
	}
}
