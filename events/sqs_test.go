package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSPublish(t *testing.T) {
	fake := &fakeSQS{}
	pub := NewSQSWithClient(fake, "https://sqs.ap-south-1.amazonaws.com/123/registrations")

	err := pub.Publish(context.Background(), Event{Type: TypeRegistrationCompleted, RegistrationID: "r1", OrderID: "order_1", Amount: 500})
	require.NoError(t, err)
	require.Len(t, fake.inputs, 1)

	in := fake.inputs[0]
	assert.Equal(t, "https://sqs.ap-south-1.amazonaws.com/123/registrations", aws.ToString(in.QueueUrl))
	assert.Equal(t, TypeRegistrationCompleted, aws.ToString(in.MessageAttributes["type"].StringValue))

	var body Event
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &body))
	assert.Equal(t, "order_1", body.OrderID)
	assert.Equal(t, 500.0, body.Amount)
}

func TestSQSPublishError(t *testing.T) {
	fake := &fakeSQS{err: errors.New("throttled")}
	err := NewSQSWithClient(fake, "q").Publish(context.Background(), Event{Type: TypeRegistrationCompleted})
	assert.ErrorContains(t, err, "throttled")
}
