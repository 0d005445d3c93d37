package job

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Handler executes one unit of work. Handlers must honor ctx cancellation
// at their suspension points; the scheduler cannot forcibly interrupt a
// handler that ignores its context.
type Handler interface {
	Execute(ctx context.Context, payload map[string]any) (any, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, payload map[string]any) (any, error)

// Execute calls f.
func (f HandlerFunc) Execute(ctx context.Context, payload map[string]any) (any, error) {
	return f(ctx, payload)
}

// BlockingHandler marks a handler whose Execute performs synchronous,
// CPU-bound or otherwise blocking work. The queue routes blocking handlers
// through its worker pool so the coordinator is never stalled. A blocking
// handler keeps running to completion even after its job is cancelled.
type BlockingHandler interface {
	Handler
	Blocking()
}

type blockingFunc struct {
	HandlerFunc
}

func (blockingFunc) Blocking() {}

// BlockingFunc adapts a plain function to a BlockingHandler.
func BlockingFunc(f func(ctx context.Context, payload map[string]any) (any, error)) BlockingHandler {
	return blockingFunc{HandlerFunc(f)}
}

// IsBlocking reports whether h must run on the worker pool.
func IsBlocking(h Handler) bool {
	_, ok := h.(BlockingHandler)
	return ok
}

// Registry maps handler names to Handler implementations. Submitters pass
// a handler name plus a payload rather than a closure, so job descriptions
// stay serializable.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler under the given name. Re-registering a name
// overwrites the previous handler.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		log.Warn().Str("handler", name).Msg("handler registration overwritten")
	}
	r.handlers[name] = h
}

// Get returns the handler registered under name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered handler names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}
