package messaging

import (
	"time"

	"github.com/google/uuid"
)

// EventType names an order lifecycle event; it doubles as the routing key.
type EventType string

const (
	// OrderPlacedEvent is published after an order reaches the hosted store.
	OrderPlacedEvent EventType = "order.placed"
	// OrderStatusChangedEvent is published after an admin changes an order status.
	OrderStatusChangedEvent EventType = "order.status_changed"
)

// Event is the JSON envelope published to the broker.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	OrderID    string    `json:"orderId"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// NewEvent builds an Event with a fresh id and the current time.
func NewEvent(eventType EventType, orderID string, payload any) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		OrderID:    orderID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// StatusChangedPayload is the payload of OrderStatusChangedEvent.
type StatusChangedPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}
