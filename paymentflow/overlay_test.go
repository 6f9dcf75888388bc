package paymentflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	assert.False(t, Describe(Snapshot{State: Idle}).Visible)

	o := Describe(Snapshot{State: Verifying, RetryMode: RetryVerify})
	assert.Equal(t, "Verifying payment", o.Title)
	assert.Equal(t, "Saving your registration in the database…", o.Subtitle)
	assert.True(t, o.Spinner)
	assert.NotEmpty(t, o.Warning)
	assert.Empty(t, o.Actions)

	o = Describe(Snapshot{State: Success})
	assert.Equal(t, "Registration complete", o.Title)
	assert.False(t, o.Spinner)

	o = Describe(Snapshot{State: Failed, RetryMode: RetryVerify, Message: MsgSaveUnreachable})
	assert.Equal(t, "Payment failed", o.Title)
	assert.Equal(t, MsgSaveUnreachable, o.Subtitle)
	assert.Equal(t, []string{"Retry Save", "Close"}, o.Actions)

	o = Describe(Snapshot{State: Cancelled, RetryMode: RetryPayment})
	assert.Equal(t, "You closed the payment window. You can retry anytime.", o.Subtitle)
	assert.Equal(t, []string{"Retry Payment", "Close"}, o.Actions)

	o = Describe(Snapshot{State: CreatingOrder})
	assert.Equal(t, "Preparing payment", o.Title)
	o = Describe(Snapshot{State: AwaitingPayment})
	assert.Equal(t, "Razorpay checkout is open. Please finish the payment.", o.Subtitle)
}
