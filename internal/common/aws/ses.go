// internal/common/aws/ses.go
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESService is the subset of the SES API used for estimate emails.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// LoadConfig resolves AWS credentials from the default chain for region.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}

func NewSESClient(cfg aws.Config) *ses.Client {
	return ses.NewFromConfig(cfg)
}

// Email is a rendered message ready for SES.
type Email struct {
	From     string
	ReplyTo  string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Input converts the email to an SES request. Empty bodies are omitted.
func (e Email) Input() *ses.SendEmailInput {
	body := &types.Body{}
	if e.TextBody != "" {
		body.Text = &types.Content{Data: aws.String(e.TextBody), Charset: aws.String("UTF-8")}
	}
	if e.HTMLBody != "" {
		body.Html = &types.Content{Data: aws.String(e.HTMLBody), Charset: aws.String("UTF-8")}
	}

	in := &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: e.To},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(e.Subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
		Source: aws.String(e.From),
	}
	if e.ReplyTo != "" {
		in.ReplyToAddresses = []string{e.ReplyTo}
	}
	return in
}
