package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPriceChanged EventType = "price_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// PriceChangedPayload carries a single product repricing.
type PriceChangedPayload struct {
	ProductID string  `json:"product_id"`
	OldPrice  float64 `json:"old_price"`
	NewPrice  float64 `json:"new_price"`
	Currency  string  `json:"currency"`
}
