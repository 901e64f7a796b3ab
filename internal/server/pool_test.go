package server

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolRunsTasks(t *testing.T) {
	p := NewWorkerPool(2, log.New(io.Discard))
	defer p.Stop()

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		p.Submit(func(ctx context.Context) {
			defer wg.Done()
			ran.Add(1)
		})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tasks did not finish")
	}
	assert.Equal(t, int32(20), ran.Load())
}

func TestWorkerPoolStopCancelsTaskContext(t *testing.T) {
	p := NewWorkerPool(1, log.New(io.Discard))

	started := make(chan struct{})
	finished := make(chan struct{})
	p.Submit(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(finished)
	})

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not start")
	}

	p.Stop()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("running task did not observe cancellation")
	}
}

func TestWorkerPoolSubmitAfterStop(t *testing.T) {
	p := NewWorkerPool(1, log.New(io.Discard))
	p.Stop()
	p.Stop() // idempotent

	var ran atomic.Bool
	p.Submit(func(ctx context.Context) { ran.Store(true) })
	time.Sleep(10 * time.Millisecond)
	assert.False(t, ran.Load())
}

func TestWorkerPoolOverflowSpawnsGoroutine(t *testing.T) {
	p := NewWorkerPool(1, log.New(io.Discard))
	defer p.Stop()

	// park the only worker so the backlog fills
	block := make(chan struct{})
	p.Submit(func(ctx context.Context) {
		select {
		case <-block:
		case <-ctx.Done():
		}
	})

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 300; i++ {
		wg.Add(1)
		p.Submit(func(ctx context.Context) {
			defer wg.Done()
			ran.Add(1)
		})
	}
	close(block)

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("overflow tasks did not finish")
	}
	require.Equal(t, int32(300), ran.Load())
}
