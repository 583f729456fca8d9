package types

import "context"

// NotificationData is the content of an operator notification email.
// Error is appended to the body only when non-empty.
type NotificationData struct {
	Name  string `json:"name"`
	Body  string `json:"body"`
	Error string `json:"error,omitempty"`
}

// EmailMessage is a plain-text message handed to a mail transport.
type EmailMessage struct {
	From    string
	To      []string
	Subject string
	Text    string
}

// Mailer delivers a single message. Implementations must honor ctx cancellation.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}
