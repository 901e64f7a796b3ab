package server

import (
	"context"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"
)

// WorkerPool runs bot engine calls on a fixed set of workers so a burst of
// simultaneous bot turns cannot fork an unbounded number of engine
// processes. It implements game.Pool.
type WorkerPool struct {
	tasks    chan func(ctx context.Context)
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
	logger   *log.Logger
}

// NewWorkerPool starts size workers. A non-positive size uses GOMAXPROCS.
func NewWorkerPool(size int, logger *log.Logger) *WorkerPool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{
		tasks:  make(chan func(ctx context.Context), 256),
		ctx:    ctx,
		cancel: cancel,
		logger: logger.WithPrefix("pool"),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.logger.Debug("worker pool started", "size", size)
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.tasks:
			task(p.ctx)
		case <-p.ctx.Done():
			return
		}
	}
}

// Submit queues a task. Sessions call this while holding their lock, so it
// never blocks: when the backlog is full the task runs on its own
// goroutine instead.
func (p *WorkerPool) Submit(task func(ctx context.Context)) {
	select {
	case <-p.ctx.Done():
		return
	default:
	}

	select {
	case p.tasks <- task:
	default:
		p.logger.Debug("task backlog full, spawning goroutine")
		go task(p.ctx)
	}
}

// Stop cancels the pool context and waits for the workers to exit. Queued
// tasks that have not started are dropped.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		p.cancel()
		p.wg.Wait()
	})
}
