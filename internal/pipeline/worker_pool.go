package pipeline

import (
	"context"
	"sync"
	"time"
)

type Task func(ctx context.Context) error

type Result struct {
	Err error
}

// WorkerPool runs submitted tasks on a fixed number of workers. An optional
// pacing interval throttles task starts so a large population does not hammer
// the store all at once.
type WorkerPool struct {
	workers int
	tasks   chan Task
	wg      sync.WaitGroup
	mu      sync.RWMutex
	pace    <-chan time.Time
	ticker  *time.Ticker
}

func NewWorkerPool(workers, buffer int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &WorkerPool{
		workers: workers,
		tasks:   make(chan Task, buffer),
	}
}

// SetPacing spaces task starts at least interval apart across all workers.
// A non-positive interval disables pacing.
func (p *WorkerPool) SetPacing(interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
		p.pace = nil
	}
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	p.ticker = t
	p.pace = t.C
}

func (p *WorkerPool) Submit(t Task) {
	if t == nil {
		return
	}
	p.tasks <- t
}

// Close stops accepting tasks; workers drain the queue and exit. The pacing
// ticker keeps running until the workers are done with the queue.
func (p *WorkerPool) Close() {
	close(p.tasks)
}

// Run starts the workers and returns a channel that yields one Result per
// executed task and closes once Close has been called and the queue drained.
func (p *WorkerPool) Run(ctx context.Context) <-chan Result {
	out := make(chan Result, p.workers*64)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-p.tasks:
					if !ok {
						return
					}
					p.mu.RLock()
					pace := p.pace
					p.mu.RUnlock()
					if pace != nil {
						select {
						case <-ctx.Done():
							return
						case <-pace:
						}
					}
					err := t(ctx)
					select {
					case <-ctx.Done():
						return
					case out <- Result{Err: err}:
					}
				}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		p.mu.Lock()
		if p.ticker != nil {
			p.ticker.Stop()
			p.ticker = nil
			p.pace = nil
		}
		p.mu.Unlock()
		close(out)
	}()

	return out
}
