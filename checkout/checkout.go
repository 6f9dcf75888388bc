// Package checkout hands a gateway order to the hosted checkout UI and waits for its answer.
package checkout

import (
	"context"
	"fmt"

	"event-registration/models"
)

// Hosted checkout defaults
const (
	DefaultScriptURL = "https://checkout.razorpay.com/v1/checkout.js"
	EventName        = "AAGAAZ 2026"
	ThemeColor       = "#ffb24a"
)

// Prefill is shown in the checkout form so the payer does not retype it
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// Theme styles the checkout modal
type Theme struct {
	Color string `json:"color"`
}

// Options configures one checkout session
type Options struct {
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	OrderID     string  `json:"order_id"`
	Prefill     Prefill `json:"prefill"`
	Theme       Theme   `json:"theme"`
}

// NewOptions builds checkout options for an order created for form
func NewOptions(order models.GatewayOrder, key string, form models.FormData) Options {
	return Options{
		Key:         key,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Name:        EventName,
		Description: fmt.Sprintf("Registration for %s", form.SportName),
		OrderID:     order.ID,
		Prefill:     Prefill{Name: form.Name, Email: form.Email, Contact: form.MobileNo},
		Theme:       Theme{Color: ThemeColor},
	}
}

// Outcome is exactly one of a payment proof or a dismissal
type Outcome struct {
	Proof     *models.PaymentProof
	Dismissed bool
}

// Bridge opens hosted checkout. The returned channel yields one Outcome and is then closed.
type Bridge interface {
	Loaded() bool
	Open(ctx context.Context, opts Options) (<-chan Outcome, error)
}
