package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/caliper-tracking/caliper-tracking-backend/types"
	"github.com/wneessen/go-mail"
)

// SMTPOptions configures an SMTPMailer.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	// UseTLS requires STARTTLS. Otherwise TLS is used when offered.
	UseTLS  bool
	Timeout time.Duration
}

// SMTPMailer delivers messages to an SMTP relay, one connection per send.
type SMTPMailer struct {
	opts SMTPOptions
}

var _ types.Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(opts SMTPOptions) *SMTPMailer {
	return &SMTPMailer{opts: opts}
}

// Send dials the relay and delivers msg.
func (m *SMTPMailer) Send(ctx context.Context, msg types.EmailMessage) error {
	message, err := buildMessage(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.opts.Host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("SMTP send failed: %w", err)
	}
	return nil
}

func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(m.opts.Port)}
	if m.opts.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(m.opts.Timeout))
	}
	if m.opts.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if m.opts.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.opts.Username),
			mail.WithPassword(m.opts.Password),
		)
	}
	return opts
}

// buildMessage converts msg into a plain-text go-mail message.
func buildMessage(msg types.EmailMessage) (*mail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("message has no recipients")
	}

	m := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", msg.From, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient list: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	return m, nil
}
