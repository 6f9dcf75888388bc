package gateway

import (
	"context"
	"fmt"

	"event-registration/models"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/spf13/cast"
)

// Razorpay creates orders through the Razorpay orders API
type Razorpay struct {
	client *razorpay.Client
	keyID  string
	secret string
}

// NewRazorpay builds a gateway for the given key pair
func NewRazorpay(keyID, keySecret string) (*Razorpay, error) {
	if keyID == "" || keySecret == "" {
		return nil, fmt.Errorf("razorpay: key id and secret are required")
	}
	return &Razorpay{
		client: razorpay.NewClient(keyID, keySecret),
		keyID:  keyID,
		secret: keySecret,
	}, nil
}

func (r *Razorpay) KeyID() string { return r.keyID }

func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(orderID, paymentID, signature, r.secret)
}

// CreateOrder registers an order of amountMinor (paise) against receipt.
// The SDK call does not take a context, so cancellation is honoured only before it starts.
func (r *Razorpay) CreateOrder(ctx context.Context, receipt string, amountMinor int64, currency string, notes map[string]string) (models.GatewayOrder, error) {
	if err := ctx.Err(); err != nil {
		return models.GatewayOrder{}, err
	}
	noteMap := map[string]interface{}{}
	for k, v := range notes {
		noteMap[k] = v
	}
	body, err := r.client.Order.Create(map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
		"notes":    noteMap,
	}, nil)
	if err != nil {
		return models.GatewayOrder{}, fmt.Errorf("razorpay create order: %w", err)
	}
	id := cast.ToString(body["id"])
	if id == "" {
		return models.GatewayOrder{}, fmt.Errorf("razorpay create order: response has no id")
	}
	return models.GatewayOrder{
		ID:       id,
		Amount:   cast.ToInt64(body["amount"]),
		Currency: cast.ToString(body["currency"]),
	}, nil
}
