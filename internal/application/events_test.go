package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/flowforge/auth-service/internal/domain"
)

func TestEventBusFanOut(t *testing.T) {
	bus := NewEventBus(zap.NewNop())

	var first, second []string
	bus.Subscribe(func(e domain.Event) { first = append(first, e.Name) })
	bus.Subscribe(func(e domain.Event) { second = append(second, e.Name) })

	bus.Publish(NewEvent(domain.EventTokensIssued, nil))
	bus.Publish(NewEvent(domain.EventTokenRevoked, nil))

	want := []string{domain.EventTokensIssued, domain.EventTokenRevoked}
	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
}

func TestNewEventFields(t *testing.T) {
	event := NewEvent(domain.EventClientRegistered, map[string]interface{}{"client_id": "c1"})

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, domain.EventClientRegistered, event.Name)
	assert.False(t, event.Time.IsZero())
	assert.Equal(t, "c1", event.Data["client_id"])
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	bus.Publish(NewEvent(domain.EventCleanupCompleted, nil))
}
