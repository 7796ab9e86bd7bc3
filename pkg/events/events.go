package events

import (
	"context"
	"encoding/json"
	"time"

	"catalog/internal/models"

	"github.com/google/uuid"
)

// Event types emitted by the catalog.
const (
	ProductCreated = "product.created"
	ProductDeleted = "product.deleted"
)

// Event is the JSON payload published for every catalog mutation.
type Event struct {
	ID         string          `json:"eventId"`
	Type       string          `json:"type"`
	ProductID  string          `json:"productId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Product    *models.Product `json:"product,omitempty"`
}

// NewEvent stamps a new event with a random ID and the current time.
func NewEvent(eventType, productID string, product *models.Product) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		ProductID:  productID,
		OccurredAt: time.Now().UTC(),
		Product:    product,
	}
}

// Marshal encodes the event as JSON.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher sends catalog events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
