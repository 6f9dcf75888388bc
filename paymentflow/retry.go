package paymentflow

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"event-registration/client"
)

// User-facing messages
const (
	MsgServerStarting    = "Server is starting. Please wait and retry."
	MsgCancelled         = "Payment cancelled by user."
	MsgAlreadyRegistered = "This Aadhar is already registered!"
	MsgResumeFound       = "Payment details found. Tap Retry Save to complete registration."
	MsgNothingToVerify   = "Nothing to verify. Please retry payment."
	MsgSaveUnreachable   = "We received your payment details, but couldn't reach the server to save the registration yet. Please tap Retry Save."
	MsgGatewayNotLoaded  = "Payment gateway not loaded. Please refresh."
	MsgSomethingWrong    = "Something went wrong. Please try again."
	MsgVerifyFailed      = "Verification failed. Please retry."
)

var transientMarkers = []string{"network", "timeout", "failed to fetch", "request failed", "internal", "service"}

// Transient reports whether err is likely to go away on retry. Signature, duplicate and
// validation failures are permanent.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *client.Error
	if errors.As(err, &apiErr) {
		if apiErr.Temporary {
			return true
		}
		// the backend answered, a 4xx other than 429 will not change on retry
		if apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Status != http.StatusTooManyRequests {
			return false
		}
	}
	text := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// userMessage folds every duplicate-registration wording into one fixed text
func userMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	msg := err.Error()
	var apiErr *client.Error
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
	}
	if strings.Contains(strings.ToLower(msg), "already registered") {
		return MsgAlreadyRegistered
	}
	if msg == "" {
		return fallback
	}
	return msg
}

// Backoff is a geometric retry schedule
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Factor   float64
	Max      time.Duration
}

// DefaultBackoff retries verification five times starting at 1.2s
var DefaultBackoff = Backoff{Attempts: 5, Initial: 1200 * time.Millisecond, Factor: 1.7, Max: 7 * time.Second}

// Next returns the delay after d, rounded to the millisecond and capped at Max
func (b Backoff) Next(d time.Duration) time.Duration {
	next := time.Duration(math.Round(float64(d.Milliseconds())*b.Factor)) * time.Millisecond
	if next > b.Max {
		return b.Max
	}
	return next
}

// Schedule returns the first n delays
func (b Backoff) Schedule(n int) []time.Duration {
	out := make([]time.Duration, 0, n)
	d := b.Initial
	if d > b.Max {
		d = b.Max
	}
	for i := 0; i < n; i++ {
		out = append(out, d)
		d = b.Next(d)
	}
	return out
}
