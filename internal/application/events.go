package application

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flowforge/auth-service/internal/domain"
)

// EventBus is a synchronous publish/subscribe bus for domain events. The
// provider facade subscribes once and republishes; components only ever see
// the domain.EventPublisher side, keeping the dependency direction explicit.
type EventBus struct {
	mu       sync.RWMutex
	handlers []func(domain.Event)
	logger   *zap.Logger
}

// NewEventBus creates a new EventBus.
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{logger: logger}
}

// Subscribe registers a handler for every subsequent event.
func (b *EventBus) Subscribe(fn func(domain.Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, fn)
}

// Publish delivers the event to all subscribers in order. Handlers run on the
// publishing goroutine and must not block.
func (b *EventBus) Publish(event domain.Event) {
	b.mu.RLock()
	handlers := make([]func(domain.Event), len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(event)
	}
}

// NewEvent builds a domain event with a fresh ID and timestamp.
func NewEvent(name string, data map[string]interface{}) domain.Event {
	return domain.Event{
		ID:   uuid.NewString(),
		Name: name,
		Time: time.Now(),
		Data: data,
	}
}
