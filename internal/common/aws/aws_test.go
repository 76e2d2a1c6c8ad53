// internal/common/aws/aws_test.go
package aws

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmail_Input(t *testing.T) {
	in := Email{
		From:     "estimates@example.co.uk",
		ReplyTo:  "support@example.co.uk",
		To:       []string{"client@example.com"},
		Subject:  "Your renovation estimate",
		TextBody: "Total: £1,188.00",
	}.Input()

	assert.Equal(t, "estimates@example.co.uk", aws.ToString(in.Source))
	assert.Equal(t, []string{"client@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, []string{"support@example.co.uk"}, in.ReplyToAddresses)
	assert.Equal(t, "Your renovation estimate", aws.ToString(in.Message.Subject.Data))
	require.NotNil(t, in.Message.Body.Text)
	assert.Equal(t, "Total: £1,188.00", aws.ToString(in.Message.Body.Text.Data))
	assert.Nil(t, in.Message.Body.Html)
}

func TestSMSInput(t *testing.T) {
	tests := []struct {
		name       string
		senderID   string
		wantSender bool
	}{
		{name: "with sender id", senderID: "RenoEst", wantSender: true},
		{name: "without sender id", senderID: "", wantSender: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := SMSInput("+447700900123", tt.senderID, "Estimate ready")
			assert.Equal(t, "+447700900123", aws.ToString(in.PhoneNumber))
			assert.Equal(t, "Estimate ready", aws.ToString(in.Message))
			assert.Equal(t, "Transactional", aws.ToString(in.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue))

			sender, ok := in.MessageAttributes["AWS.SNS.SMS.SenderID"]
			assert.Equal(t, tt.wantSender, ok)
			if ok {
				assert.Equal(t, tt.senderID, aws.ToString(sender.StringValue))
			}
		})
	}
}
