package server

import (
	"context"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/gammond/internal/game"
	"github.com/lox/gammond/internal/randutil"
)

// NotificationQueue is the process-wide FIFO between the session layer's
// timer/bot paths and the single consumer goroutine. It is unbounded: a
// slow client must never stall a session holding its lock.
type NotificationQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*game.Notification
	closed bool
}

// NewNotificationQueue creates an open queue.
func NewNotificationQueue() *NotificationQueue {
	q := &NotificationQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue implements game.Enqueuer.
func (q *NotificationQueue) Enqueue(n game.Notification) {
	q.Put(&n)
}

// Put appends n and wakes a waiter. Once the queue is closed further puts
// are dropped.
func (q *NotificationQueue) Put(n *game.Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, n)
	q.cond.Signal()
}

// Get blocks until an item is available. After Close it drains the backlog
// and then returns nil, the shutdown sentinel. Context cancellation also
// returns nil.
func (q *NotificationQueue) Get(ctx context.Context) *game.Notification {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed && ctx.Err() == nil {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil
	}
	n := q.items[0]
	q.items = q.items[1:]
	return n
}

// Close marks the queue finished and wakes all waiters.
func (q *NotificationQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Len returns the backlog size.
func (q *NotificationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pacing windows applied after bot-originated events so the client can
// animate the bot's play at a human rhythm.
const (
	botRollPauseMin = 500 * time.Millisecond
	botRollPauseMax = 1500 * time.Millisecond
	botStepPauseMin = 750 * time.Millisecond
	botStepPauseMax = 2 * time.Second
)

// Consumer drains the notification queue in order on one goroutine and
// emits each item through the gateway. Ordering across all sessions is the
// queue order; pacing pauses apply after bot dice and bot steps.
type Consumer struct {
	queue  *NotificationQueue
	emit   func(n game.Notification)
	clock  quartz.Clock
	rand   *rand.Rand
	logger *log.Logger
}

// NewConsumer wires a consumer to the queue and the gateway emit function.
// A nil clock uses real time.
func NewConsumer(queue *NotificationQueue, emit func(n game.Notification), clock quartz.Clock, rng *rand.Rand, logger *log.Logger) *Consumer {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Consumer{
		queue:  queue,
		emit:   emit,
		clock:  clock,
		rand:   rng,
		logger: logger.WithPrefix("consumer"),
	}
}

// Run consumes until the queue closes or ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		n := c.queue.Get(ctx)
		if n == nil {
			c.logger.Debug("consumer stopping")
			return ctx.Err()
		}

		c.emit(*n)

		if d := c.pauseAfter(n); d > 0 {
			if !c.sleep(ctx, d) {
				return ctx.Err()
			}
		}
	}
}

// pauseAfter returns the pacing pause owed after n, zero for most events.
func (c *Consumer) pauseAfter(n *game.Notification) time.Duration {
	switch n.Event {
	case game.EventBotDiceRollResult:
		return randutil.Jitter(c.rand, botRollPauseMin, botRollPauseMax)
	case game.EventBotStepExecuted:
		if p, ok := n.Payload.(game.OpponentStepPayload); ok && p.IsBotMove {
			return randutil.Jitter(c.rand, botStepPauseMin, botStepPauseMax)
		}
	}
	return 0
}

// sleep blocks for d on the injected clock. It reports false when ctx ended
// first.
func (c *Consumer) sleep(ctx context.Context, d time.Duration) bool {
	done := make(chan struct{})
	timer := c.clock.AfterFunc(d, func() { close(done) })
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
