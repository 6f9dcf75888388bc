package paymentflow

// Overlay is what the processing overlay shows for a snapshot
type Overlay struct {
	Visible  bool
	Title    string
	Subtitle string
	Spinner  bool
	// Warning is shown while leaving would interrupt the payment
	Warning string
	// Actions lists the buttons in order, primary first
	Actions []string
}

// CloseAction dismisses the overlay
const CloseAction = "Close"

const inProgressWarning = "Processing is under way. Please do not refresh or go back."

// Describe maps a snapshot onto overlay copy
func Describe(s Snapshot) Overlay {
	o := Overlay{Visible: true, Spinner: s.State.InProgress()}
	switch s.State {
	case CreatingOrder:
		o.Title, o.Subtitle = "Preparing payment", "Creating your payment order…"
	case AwaitingPayment:
		o.Title, o.Subtitle = "Complete payment", "Razorpay checkout is open. Please finish the payment."
	case Verifying:
		o.Title, o.Subtitle = "Verifying payment", "Saving your registration in the database…"
	case Success:
		o.Title, o.Subtitle = "Registration complete", "Payment verified and entry created."
	case Failed:
		o.Title, o.Subtitle = "Payment failed", orDefault(s.Message, "Something went wrong. Please retry.")
	case Cancelled:
		o.Title, o.Subtitle = "Payment cancelled", orDefault(s.Message, "You closed the payment window. You can retry anytime.")
	default:
		return Overlay{}
	}
	if o.Spinner {
		o.Warning = inProgressWarning
	}
	if s.State == Failed || s.State == Cancelled {
		o.Actions = []string{s.RetryMode.Label(), CloseAction}
	}
	return o
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
