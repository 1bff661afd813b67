package sse

import (
	"context"
	"testing"
	"time"

	"ms-attendance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan models.Activity) models.Activity {
	t.Helper()
	select {
	case a := <-ch:
		return a
	case <-time.After(time.Second):
		t.Fatal("no activity received")
		return models.Activity{}
	}
}

func TestEmitReachesEventAndWildcardSubscribers(t *testing.T) {
	e := NewActivityEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mine := e.Subscribe(ctx, "event-a")
	other := e.Subscribe(ctx, "event-b")
	all := e.Subscribe(ctx, AllEvents)

	e.Emit(models.Activity{TxID: "1", Event: "event-a", Instruction: "register_event"})

	assert.Equal(t, "1", receive(t, mine).TxID)
	assert.Equal(t, "1", receive(t, all).TxID)
	select {
	case a := <-other:
		t.Fatalf("unexpected activity for other event: %+v", a)
	default:
	}
}

func TestEmitDropsDuplicateTransactions(t *testing.T) {
	e := NewActivityEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := e.Subscribe(ctx, "event-a")

	e.Emit(models.Activity{TxID: "1", Event: "event-a"})
	e.Emit(models.Activity{TxID: "1", Event: "event-a"})
	e.Emit(models.Activity{TxID: "2", Event: "event-a"})

	assert.Equal(t, "1", receive(t, ch).TxID)
	assert.Equal(t, "2", receive(t, ch).TxID)
}

func TestSlowClientDoesNotBlock(t *testing.T) {
	e := NewActivityEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Subscribe(ctx, "event-a")

	done := make(chan struct{})
	go func() {
		for i := 0; i < clientBuffer*3; i++ {
			e.Emit(models.Activity{Event: "event-a"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full client")
	}
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	e := NewActivityEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	ch := e.Subscribe(ctx, "event-a")
	require.Equal(t, 1, e.ClientCount("event-a"))

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
	assert.Eventually(t, func() bool { return e.ClientCount("event-a") == 0 }, time.Second, 10*time.Millisecond)
}
