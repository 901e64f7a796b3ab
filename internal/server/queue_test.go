package server

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/gammond/internal/game"
	"github.com/lox/gammond/internal/randutil"
)

func TestNotificationQueueFIFO(t *testing.T) {
	q := NewNotificationQueue()
	q.Enqueue(game.Notification{Event: "first", Recipient: "sid-1"})
	q.Enqueue(game.Notification{Event: "second", Recipient: "sid-1"})
	q.Enqueue(game.Notification{Event: "third", Recipient: "sid-2"})
	assert.Equal(t, 3, q.Len())

	ctx := context.Background()
	assert.Equal(t, "first", q.Get(ctx).Event)
	assert.Equal(t, "second", q.Get(ctx).Event)
	assert.Equal(t, "third", q.Get(ctx).Event)
	assert.Equal(t, 0, q.Len())
}

func TestNotificationQueueCloseDrainsBacklog(t *testing.T) {
	q := NewNotificationQueue()
	q.Enqueue(game.Notification{Event: "first"})
	q.Enqueue(game.Notification{Event: "second"})
	q.Close()

	// puts after close are dropped
	q.Enqueue(game.Notification{Event: "late"})

	ctx := context.Background()
	assert.Equal(t, "first", q.Get(ctx).Event)
	assert.Equal(t, "second", q.Get(ctx).Event)
	assert.Nil(t, q.Get(ctx))
	assert.Nil(t, q.Get(ctx))
}

func TestNotificationQueueGetUnblocksOnCancel(t *testing.T) {
	q := NewNotificationQueue()
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan *game.Notification, 1)
	go func() { got <- q.Get(ctx) }()

	cancel()
	select {
	case n := <-got:
		assert.Nil(t, n)
	case <-time.After(5 * time.Second):
		t.Fatal("Get did not unblock on context cancellation")
	}
}

func TestNotificationQueueGetUnblocksOnPut(t *testing.T) {
	q := NewNotificationQueue()

	got := make(chan *game.Notification, 1)
	go func() { got <- q.Get(context.Background()) }()

	q.Enqueue(game.Notification{Event: "wakeup"})
	select {
	case n := <-got:
		require.NotNil(t, n)
		assert.Equal(t, "wakeup", n.Event)
	case <-time.After(5 * time.Second):
		t.Fatal("Get did not unblock on put")
	}
}

type emitRecorder struct {
	mu    sync.Mutex
	items []game.Notification
}

func (r *emitRecorder) emit(n game.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *emitRecorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.items))
	for i, n := range r.items {
		out[i] = n.Event
	}
	return out
}

func TestConsumerEmitsInOrder(t *testing.T) {
	q := NewNotificationQueue()
	rec := &emitRecorder{}
	c := NewConsumer(q, rec.emit, quartz.NewMock(t), randutil.New(1), log.New(io.Discard))

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	// none of these events owe a pacing pause
	q.Enqueue(game.Notification{Event: game.EventDiceRollResult, Recipient: "sid-1"})
	q.Enqueue(game.Notification{Event: game.EventTurnFinished, Recipient: "sid-1"})
	q.Enqueue(game.Notification{Event: game.EventGameOver, Recipient: "sid-2"})

	require.Eventually(t, func() bool {
		return len(rec.events()) == 3
	}, 5*time.Second, time.Millisecond)
	assert.Equal(t, []string{
		game.EventDiceRollResult,
		game.EventTurnFinished,
		game.EventGameOver,
	}, rec.events())

	q.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop after queue close")
	}
}

func TestConsumerStopsOnContextCancel(t *testing.T) {
	q := NewNotificationQueue()
	rec := &emitRecorder{}
	c := NewConsumer(q, rec.emit, quartz.NewMock(t), randutil.New(1), log.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop on context cancellation")
	}
}

func TestConsumerPacesBotRolls(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mockClock := quartz.NewMock(t)
	q := NewNotificationQueue()
	rec := &emitRecorder{}
	c := NewConsumer(q, rec.emit, mockClock, randutil.New(1), log.New(io.Discard))

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	q.Enqueue(game.Notification{Event: game.EventBotDiceRollResult, Recipient: "sid-1"})
	q.Enqueue(game.Notification{Event: game.EventTurnFinished, Recipient: "sid-1"})

	// the bot roll goes out, then the consumer sits in its pacing pause
	require.Eventually(t, func() bool {
		d, ok := mockClock.Peek()
		return ok && d > 0
	}, 5*time.Second, time.Millisecond)
	pause, _ := mockClock.Peek()
	assert.GreaterOrEqual(t, pause, botRollPauseMin)
	assert.LessOrEqual(t, pause, botRollPauseMax)
	assert.Equal(t, []string{game.EventBotDiceRollResult}, rec.events())

	mockClock.Advance(pause).MustWait(ctx)
	require.Eventually(t, func() bool {
		return len(rec.events()) == 2
	}, 5*time.Second, time.Millisecond)

	q.Close()
	require.NoError(t, <-done)
}

func TestConsumerPauseAfter(t *testing.T) {
	c := NewConsumer(NewNotificationQueue(), func(game.Notification) {}, quartz.NewMock(t), randutil.New(1), log.New(io.Discard))

	botStep := &game.Notification{
		Event:   game.EventBotStepExecuted,
		Payload: game.OpponentStepPayload{IsBotMove: true},
	}
	d := c.pauseAfter(botStep)
	assert.GreaterOrEqual(t, d, botStepPauseMin)
	assert.LessOrEqual(t, d, botStepPauseMax)

	// the shared event name only paces when the payload is a bot move
	humanStep := &game.Notification{
		Event:   game.EventBotStepExecuted,
		Payload: game.OpponentStepPayload{},
	}
	assert.Zero(t, c.pauseAfter(humanStep))

	assert.Zero(t, c.pauseAfter(&game.Notification{Event: game.EventDiceRollResult}))
	assert.Zero(t, c.pauseAfter(&game.Notification{Event: game.EventOpponentStepExecuted}))
	assert.Zero(t, c.pauseAfter(&game.Notification{Event: game.EventGameOver}))
}
