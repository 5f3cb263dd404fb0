package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart lifecycle event types
const (
	CartEventItemAdded      = "item_added"
	CartEventQuantityUpdate = "quantity_updated"
	CartEventItemRemoved    = "item_removed"
	CartEventCleared        = "cart_cleared"
)

// Payment lifecycle event types
const (
	PaymentEventInitiated = "payment_initiated"
	PaymentEventSucceeded = "payment_succeeded"
	PaymentEventFailed    = "payment_failed"
)

type CartEvent struct {
	Event      string    `json:"event"`
	CartID     uuid.UUID `json:"cart_id"`
	OwnerID    string    `json:"owner_id"`
	ExternalID string    `json:"external_id,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type PaymentEvent struct {
	Event     string    `json:"event"`
	PaymentID uuid.UUID `json:"payment_id"`
	CartID    uuid.UUID `json:"cart_id"`
	OwnerID   string    `json:"owner_id"`
	Amount    float64   `json:"amount"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewCartEvent(event string, cartID uuid.UUID, ownerID, externalID string, quantity int) CartEvent {
	return CartEvent{
		Event:      event,
		CartID:     cartID,
		OwnerID:    ownerID,
		ExternalID: externalID,
		Quantity:   quantity,
		Timestamp:  time.Now().UTC(),
	}
}

func NewPaymentEvent(event string, paymentID, cartID uuid.UUID, ownerID string, amount float64, message string) PaymentEvent {
	return PaymentEvent{
		Event:     event,
		PaymentID: paymentID,
		CartID:    cartID,
		OwnerID:   ownerID,
		Amount:    amount,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}
