// Package events announces completed registrations to downstream consumers.
package events

import (
	"context"
	"time"
)

// TypeRegistrationCompleted is published after a payment is reconciled into a registration
const TypeRegistrationCompleted = "registration.completed"

// Event is the message body published for each completed registration
type Event struct {
	Type            string    `json:"type"`
	RegistrationID  string    `json:"registration_id"`
	OrderID         string    `json:"order_id"`
	PaymentID       string    `json:"payment_id"`
	Email           string    `json:"email"`
	SportID         string    `json:"sport_id"`
	SportName       string    `json:"sport_name"`
	Amount          float64   `json:"amount"`
	DocumentPending bool      `json:"document_pending"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Nop drops every event
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
