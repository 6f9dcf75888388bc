// Package paymentflow drives a registration from submit to a reconciled payment and
// recovers it after an interruption.
package paymentflow

// State is a step of the payment flow
type State int

const (
	Idle State = iota
	CreatingOrder
	AwaitingPayment
	Verifying
	Success
	Failed
	Cancelled
)

var stateNames = [...]string{"idle", "creatingOrder", "awaitingPayment", "verifying", "success", "failed", "cancelled"}

func (s State) String() string {
	if int(s) < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// InProgress reports whether the flow is waiting on the network or the payer.
// Leaving the client in one of these states can lose proof of payment.
func (s State) InProgress() bool {
	return s == CreatingOrder || s == AwaitingPayment || s == Verifying
}

// Terminal reports whether the flow needs user action to continue
func (s State) Terminal() bool {
	return s == Success || s == Failed || s == Cancelled
}

// RetryMode selects the recovery action offered after a failure
type RetryMode int

const (
	// RetryPayment starts over with a new order
	RetryPayment RetryMode = iota
	// RetryVerify resubmits a payment proof that was already received
	RetryVerify
)

func (m RetryMode) String() string {
	if m == RetryVerify {
		return "verify"
	}
	return "payment"
}

// Label is the text of the primary recovery action
func (m RetryMode) Label() string {
	if m == RetryVerify {
		return "Retry Save"
	}
	return "Retry Payment"
}
