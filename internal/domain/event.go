package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventAdd    EventType = "ADD"
	EventUpdate EventType = "UPDATE"
	EventRemove EventType = "REMOVE"
	EventClear  EventType = "CLEAR"
)

// CartEvent is an append-only audit record of a cart mutation. It is not part
// of the consistency protocol.
type CartEvent struct {
	ID        uuid.UUID     `json:"id"`
	CartID    uuid.UUID     `json:"cart_id"`
	ProductID uuid.NullUUID `json:"product_id"`
	EventType EventType     `json:"event_type"`
	Quantity  int32         `json:"quantity"`
	CreatedAt time.Time     `json:"created_at"`
}
