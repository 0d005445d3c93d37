// Package event provides a simple publish-subscribe event bus for decoupled
// communication between the scheduler core and its collaborators.
package event

import (
	"context"
	"sync"
	"time"
)

// Job lifecycle events emitted by the scheduler.
const (
	JobCreated   = "job.created"
	JobStarted   = "job.started"
	JobCompleted = "job.completed"
	JobFailed    = "job.failed"
	JobRetrying  = "job.retrying"
	JobCancelled = "job.cancelled"

	QueueStarted = "queue.started"
	QueueStopped = "queue.stopped"
)

// Envelope wraps an emitted payload with its origin and timestamp.
type Envelope struct {
	Event   string    `json:"event"`
	Payload any       `json:"payload"`
	Source  string    `json:"source"`
	Time    time.Time `json:"time"`
}

// Handler is a function that handles an event.
type Handler func(ctx context.Context, env Envelope)

// Emitter is the contract the scheduler core depends on. Delivery
// semantics beyond the asynchronous call are the emitter's business.
type Emitter interface {
	Emit(ctx context.Context, event string, payload any, source string)
}

// Bus is an in-memory Emitter with subscriber fan-out.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[string][]Handler),
	}
}

// Subscribe adds a handler for a specific event.
func (b *Bus) Subscribe(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[event] = append(b.subscribers[event], handler)
}

// Emit triggers all handlers subscribed to the event. Handlers run on
// their own goroutines so a slow subscriber never blocks the emitter.
func (b *Bus) Emit(ctx context.Context, event string, payload any, source string) {
	env := Envelope{
		Event:   event,
		Payload: payload,
		Source:  source,
		Time:    time.Now(),
	}

	b.mu.RLock()
	handlers := append([]Handler{}, b.subscribers[event]...) // copy to avoid race
	b.mu.RUnlock()

	for _, handler := range handlers {
		go handler(ctx, env)
	}
}
