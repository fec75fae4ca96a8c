package model

import (
	"encoding/json"
	"time"
)

const EventOrderPaid = "order.paid"

// OutboxRecord is an event committed alongside the state change it
// describes and published later by the relay. ID doubles as the event id.
type OutboxRecord struct {
	ID        string     `db:"id" json:"id"`
	Topic     string     `db:"topic" json:"topic"`
	Key       string     `db:"key" json:"key"`
	EventType string     `db:"event_type" json:"event_type"`
	Payload   []byte     `db:"payload" json:"payload"`
	Attempts  int        `db:"attempts" json:"attempts"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	SentAt    *time.Time `db:"sent_at" json:"sent_at,omitempty"`
}

// Event is the envelope published to the broker.
type Event struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type OrderPaidLine struct {
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	ProductType ProductType `json:"product_type"`
	Quantity    int         `json:"quantity"`
}

type DownloadLink struct {
	ProductName string    `json:"product_name"`
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// OrderPaidPayload carries what the notification listener needs to email a
// receipt without reading the order back.
type OrderPaidPayload struct {
	OrderID   string          `json:"order_id"`
	Email     string          `json:"email"`
	Total     string          `json:"total"`
	Items     []OrderPaidLine `json:"items"`
	Downloads []DownloadLink  `json:"downloads"`
}
