package worker

import (
	"context"
	"log/slog"
	"sync"
)

type ProcessFunc[J any] func(ctx context.Context, job J) error

// WorkerPool runs a fixed number of goroutines that process submitted jobs.
// Processing errors are logged; callers that need results collect them from
// inside the ProcessFunc.
type WorkerPool[J any] struct {
	name       string
	numWorkers int
	jobs       chan J
	processor  ProcessFunc[J]
	wg         sync.WaitGroup
}

func NewWorkerPool[J any](name string, numWorkers int, bufferSize int, processor ProcessFunc[J]) *WorkerPool[J] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool[J]{
		name:       name,
		numWorkers: numWorkers,
		jobs:       make(chan J, bufferSize),
		processor:  processor,
	}
}

func (wp *WorkerPool[J]) Start(ctx context.Context) {
	for i := 1; i <= wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool[J]) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			if err := wp.processor(ctx, job); err != nil {
				slog.Debug("job failed", "pool", wp.name, "worker", id, "error", err)
			}
		}
	}
}

// Submit queues a job. It blocks while the buffer is full.
func (wp *WorkerPool[J]) Submit(job J) {
	wp.jobs <- job
}

// Stop closes the queue and waits for the workers to drain it. Jobs still
// queued when the context is cancelled are dropped.
func (wp *WorkerPool[J]) Stop() {
	close(wp.jobs)
	wp.wg.Wait()
}

// Run processes every job on a temporary pool and returns once all of them
// have been handled or ctx is done.
func Run[J any](ctx context.Context, name string, numWorkers int, jobs []J, processor ProcessFunc[J]) {
	pool := NewWorkerPool(name, numWorkers, len(jobs), processor)
	pool.Start(ctx)
	for _, j := range jobs {
		pool.Submit(j)
	}
	pool.Stop()
}
