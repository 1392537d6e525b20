package worker

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrPoolStarted    = errors.New("worker pool has already been started")
	ErrPoolNotStarted = errors.New("worker pool has not been started")
)

// WorkerPool owns a fixed set of workers and a WaitGroup tracking their
// goroutines. The number of workers pushed is the upper bound on how many
// tasks run at once.
type WorkerPool struct {
	workers []Worker
	wg      sync.WaitGroup
	started bool
}

// NewWorkerPool creates a new WorkerPool struct
// and initialises the 'workers' slice.
func NewWorkerPool() *WorkerPool {
	return &WorkerPool{workers: make([]Worker, 0)}
}

// PushWorker inserts the workers provided in to the pool. Workers
// cannot be added once the pool is started.
func (pool *WorkerPool) PushWorker(workers ...Worker) error {
	if pool.started {
		return ErrPoolStarted
	}

	pool.workers = append(pool.workers, workers...)
	return nil
}

// Start creates a goroutine for every worker in the pool. Start does
// NOT block; use Wait to block until every worker has finished.
func (pool *WorkerPool) Start(ctx context.Context) error {
	if pool.started {
		return ErrPoolStarted
	}

	pool.started = true
	for _, worker := range pool.workers {
		pool.wg.Add(1)
		go func(w Worker) {
			defer pool.wg.Done()
			w.Start(ctx)
		}(worker)
	}

	return nil
}

// Wait blocks until every worker in the pool has exited.
func (pool *WorkerPool) Wait() error {
	if !pool.started {
		return ErrPoolNotStarted
	}

	pool.wg.Wait()
	return nil
}

// Workers returns the workers attached to this pool.
func (pool *WorkerPool) Workers() []Worker { return pool.workers }
