package taskqueue

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/giftcampaign/backend/internal/domain/shared"
)

// Handler executes one task. A returned error schedules a retry.
type Handler func(ctx context.Context, task *shared.Task) error

// ErrNoHandler is returned for tasks whose name has no registered handler
var ErrNoHandler = shared.NewDomainError("NO_TASK_HANDLER", "No handler registered for task")

// Registry maps task names to handlers
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a handler to a task name. Registering a name twice panics.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("taskqueue: handler for %q already registered", name))
	}
	r.handlers[name] = h
}

// Handler returns the handler for name
func (r *Registry) Handler(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	if !ok {
		return nil, shared.Errorf(ErrNoHandler, "No handler registered for task %s", name)
	}
	return h, nil
}

// Names lists registered task names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
