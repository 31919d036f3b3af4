package domain

import (
	"time"
)

// Domain event names published on the provider's event bus.
const (
	EventClientRegistered   = "clientRegistered"
	EventClientUpdated      = "clientUpdated"
	EventClientDeleted      = "clientDeleted"
	EventScopeRegistered    = "scopeRegistered"
	EventTokensIssued       = "tokensIssued"
	EventTokenRefreshed     = "tokenRefreshed"
	EventTokenRevoked       = "tokenRevoked"
	EventTokenIntrospected  = "tokenIntrospected"
	EventSessionCreated     = "sessionCreated"
	EventSuspiciousActivity = "suspiciousActivity"
	EventCleanupCompleted   = "cleanupCompleted"
)

// Event is a domain event republished by the provider facade.
type Event struct {
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Time time.Time              `json:"time"`
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventPublisher publishes domain events. Components hold the publisher
// explicitly; there is no implicit listener wiring.
type EventPublisher interface {
	Publish(event Event)
}
