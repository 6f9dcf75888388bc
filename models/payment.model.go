package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment order statuses. An order only ever advances created -> paid or created -> failed;
// refunded is set by operators outside the registration flow.
const (
	PaymentStatusCreated  = "created"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// DefaultCurrency is used when an order does not name one.
const DefaultCurrency = "INR"

// PaymentOrder tracks a single attempt to pay an event fee through the gateway
type PaymentOrder struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	Receipt        string              `bson:"receipt" json:"receipt"`
	OrderID        string              `bson:"order_id,omitempty" json:"order_id,omitempty"` // gateway-issued
	PaymentID      *string             `bson:"payment_id" json:"payment_id"`
	Signature      *string             `bson:"signature" json:"-"`
	Amount         float64             `bson:"amount" json:"amount"`
	Currency       string              `bson:"currency" json:"currency"`
	Status         string              `bson:"status" json:"status"`
	Name           string              `bson:"name" json:"name"`
	Email          string              `bson:"email" json:"email"`
	MobileNo       string              `bson:"mobile_no" json:"mobile_no"`
	AadharNo       string              `bson:"aadhar_no" json:"-"`
	SportID        string              `bson:"sport_id" json:"sport_id"`
	SportName      string              `bson:"sport_name" json:"sport_name"`
	RegistrationID *primitive.ObjectID `bson:"registration_id" json:"registration_id,omitempty"`
	CreatedAt      time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updated_at"`
}

// IsPaid reports whether the order has been reconciled
func (p *PaymentOrder) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}

// PaymentProof is what the hosted checkout hands back once the payer completes payment.
// Field names follow the gateway's callback payload.
type PaymentProof struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// Complete reports whether all three proof fields are present
func (p PaymentProof) Complete() bool {
	return p.OrderID != "" && p.PaymentID != "" && p.Signature != ""
}

// GatewayOrder is the order handle the client needs to open checkout
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`
}

// CreateOrderRequest is the body of POST /payment/create-order
type CreateOrderRequest struct {
	Amount    float64 `json:"amount" validate:"gt=0"`
	Name      string  `json:"name" validate:"required,min=3"`
	Email     string  `json:"email" validate:"required,email"`
	MobileNo  string  `json:"mobileNo" validate:"required,mobile"`
	AadharNo  string  `json:"aadharNo" validate:"required,aadhar"`
	SportID   string  `json:"sportId" validate:"required"`
	SportName string  `json:"sportName" validate:"required"`
}

// CreateOrderResponse carries the gateway order and the public key for checkout
type CreateOrderResponse struct {
	Success bool         `json:"success"`
	Order   GatewayOrder `json:"order"`
	Key     string       `json:"key"`
}

// VerifyResponse is returned once a payment has been reconciled into a registration
type VerifyResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	RegistrationID  string `json:"registrationId"`
	DocumentPending bool   `json:"documentPending,omitempty"`
}

// PaymentStatusResponse is returned by GET /payment/{orderId}
type PaymentStatusResponse struct {
	Success        bool    `json:"success"`
	OrderID        string  `json:"orderId"`
	Status         string  `json:"status"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	SportName      string  `json:"sportName"`
	RegistrationID string  `json:"registrationId,omitempty"`
}
