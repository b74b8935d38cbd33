package progress

import "sync"

// Handler receives decoded progress events for one operation.
type Handler func(Event)

// Hub routes progress events to per-operation handlers. Each operation id
// has at most one active handler; subscribing again replaces the previous
// one. Events published for an id with no handler are dropped, which is a
// normal condition: workers may emit progress before anyone subscribes or
// after an early unsubscribe.
type Hub struct {
	mu       sync.Mutex
	handlers map[string]*subscription
}

type subscription struct {
	handler Handler
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{handlers: make(map[string]*subscription)}
}

// Subscribe registers handler for operationID, displacing any prior
// handler. The returned unsubscribe function is idempotent and safe to call
// after the operation has completed; it removes only this registration, not
// a later replacement.
func (h *Hub) Subscribe(operationID string, handler Handler) func() {
	if handler == nil {
		return func() {}
	}
	sub := &subscription{handler: handler}

	h.mu.Lock()
	h.handlers[operationID] = sub
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			if current, ok := h.handlers[operationID]; ok && current == sub {
				delete(h.handlers, operationID)
			}
			h.mu.Unlock()
		})
	}
}

// Publish delivers event to the handler registered for operationID, if any.
// Delivery happens outside the hub lock so handlers may resubscribe or
// unsubscribe without deadlocking.
func (h *Hub) Publish(operationID string, event Event) {
	h.mu.Lock()
	sub := h.handlers[operationID]
	h.mu.Unlock()

	if sub != nil {
		sub.handler(event)
	}
}
