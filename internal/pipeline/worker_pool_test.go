package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_RunsAllTasks(t *testing.T) {
	pool := NewWorkerPool(4, 64)
	results := pool.Run(context.Background())

	var counter atomic.Int64
	go func() {
		for i := 0; i < 50; i++ {
			pool.Submit(func(context.Context) error {
				counter.Add(1)
				return nil
			})
		}
		pool.Close()
	}()

	var got int
	for range results {
		got++
	}

	assert.Equal(t, 50, got)
	assert.Equal(t, int64(50), counter.Load())
}

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	const workers = 3
	pool := NewWorkerPool(workers, 64)
	results := pool.Run(context.Background())

	var mu sync.Mutex
	var inFlight, peak int

	go func() {
		for i := 0; i < 30; i++ {
			pool.Submit(func(context.Context) error {
				mu.Lock()
				inFlight++
				if inFlight > peak {
					peak = inFlight
				}
				mu.Unlock()

				mu.Lock()
				inFlight--
				mu.Unlock()
				return nil
			})
		}
		pool.Close()
	}()

	for range results {
	}

	assert.LessOrEqual(t, peak, workers)
}

func TestWorkerPool_ContextCancelStopsWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewWorkerPool(2, 0)
	results := pool.Run(ctx)

	cancel()

	// Channel must close even though Close is never called.
	for range results {
	}
}
