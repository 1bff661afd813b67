package sse

import (
	"context"
	"sync"

	"ms-attendance/internal/models"
)

// AllEvents subscribes to activity on every event.
const AllEvents = "*"

const clientBuffer = 10

// ActivityEmitter manages SSE subscribers and broadcasts committed activity
type ActivityEmitter struct {
	mu sync.RWMutex
	// key: event address or AllEvents
	clients map[string][]chan models.Activity
	// recently emitted tx ids, so activity relayed back from Kafka is not sent twice
	seen  map[string]struct{}
	order []string
}

const seenLimit = 1024

// NewActivityEmitter creates a new SSE emitter for attendance activity
func NewActivityEmitter() *ActivityEmitter {
	return &ActivityEmitter{
		clients: make(map[string][]chan models.Activity),
		seen:    make(map[string]struct{}),
	}
}

// Subscribe adds a client for one event's activity. The channel is closed
// once ctx is done.
func (e *ActivityEmitter) Subscribe(ctx context.Context, event string) <-chan models.Activity {
	clientChan := make(chan models.Activity, clientBuffer)

	e.mu.Lock()
	e.clients[event] = append(e.clients[event], clientChan)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(event, clientChan)
	}()

	return clientChan
}

// Emit broadcasts activity to the event's subscribers and to AllEvents
// subscribers. Slow clients miss messages instead of blocking the emitter.
func (e *ActivityEmitter) Emit(activity models.Activity) {
	e.mu.Lock()
	if activity.TxID != "" {
		if _, dup := e.seen[activity.TxID]; dup {
			e.mu.Unlock()
			return
		}
		e.remember(activity.TxID)
	}
	targets := append([]chan models.Activity(nil), e.clients[activity.Event]...)
	if activity.Event != AllEvents {
		targets = append(targets, e.clients[AllEvents]...)
	}
	// Sends happen under the lock so remove cannot close a channel mid-send.
	for _, clientChan := range targets {
		select {
		case clientChan <- activity:
		default:
		}
	}
	e.mu.Unlock()
}

func (e *ActivityEmitter) remember(txID string) {
	e.seen[txID] = struct{}{}
	e.order = append(e.order, txID)
	if len(e.order) > seenLimit {
		delete(e.seen, e.order[0])
		e.order = e.order[1:]
	}
}

func (e *ActivityEmitter) remove(event string, clientChan chan models.Activity) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients := e.clients[event]
	for i, ch := range clients {
		if ch == clientChan {
			e.clients[event] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.clients[event]) == 0 {
		delete(e.clients, event)
	}
}

// ClientCount returns the number of clients currently subscribed to an event
func (e *ActivityEmitter) ClientCount(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients[event])
}
