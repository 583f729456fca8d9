package mailer

import (
	"context"
	"fmt"

	"github.com/caliper-tracking/caliper-tracking-backend/types"
	"github.com/resend/resend-go/v2"
)

// ResendMailer delivers messages through the Resend HTTP API.
type ResendMailer struct {
	client *resend.Client
}

var _ types.Mailer = (*ResendMailer)(nil)

func NewResendMailer(apiKey string) *ResendMailer {
	return NewResendMailerWithClient(resend.NewClient(apiKey))
}

// NewResendMailerWithClient uses a preconfigured client, e.g. one whose
// BaseURL points at a test server.
func NewResendMailerWithClient(client *resend.Client) *ResendMailer {
	return &ResendMailer{client: client}
}

func (m *ResendMailer) Send(ctx context.Context, msg types.EmailMessage) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}

	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Text,
	}

	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}
	return nil
}
