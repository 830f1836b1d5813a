package mailer

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Message is one transactional email.
type Message struct {
	To      string
	From    string
	Subject string
	HTML    string
}

// Sender delivers transactional email and returns the provider's
// message id. Delivery is best effort everywhere it is used: a failed
// send never rolls back the record mutation that triggered it.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// SES sends mail through AWS Simple Email Service.
type SES struct {
	client *ses.Client
}

// NewSES builds an SES sender using the default credential chain.
func NewSES(ctx context.Context, region string) (*SES, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SES{client: ses.NewFromConfig(cfg)}, nil
}

// Send delivers one HTML email.
func (s *SES) Send(ctx context.Context, msg Message) (string, error) {
	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}

// LogSender logs messages instead of delivering them. Used in dev when
// no mail provider is configured.
type LogSender struct {
	Log zerolog.Logger
}

// Send logs the message and returns a generated id.
func (l *LogSender) Send(_ context.Context, msg Message) (string, error) {
	id := uuid.NewString()
	l.Log.Info().
		Str("to", msg.To).
		Str("from", msg.From).
		Str("subject", msg.Subject).
		Str("message_id", id).
		Msg("email suppressed (no mail provider configured)")
	return id, nil
}
