// Package gateway talks to the external payment gateway that captures the event fee.
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"event-registration/models"
)

// Gateway creates orders on the payment gateway and checks the proofs it signs
type Gateway interface {
	CreateOrder(ctx context.Context, receipt string, amountMinor int64, currency string, notes map[string]string) (models.GatewayOrder, error)
	// KeyID is the public key the hosted checkout is opened with
	KeyID() string
	VerifySignature(orderID, paymentID, signature string) bool
}

// Sign returns the hex HMAC-SHA256 of "orderID|paymentID" under secret
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares signature with the expected one in constant time
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	if orderID == "" || paymentID == "" || signature == "" || secret == "" {
		return false
	}
	expected := Sign(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
