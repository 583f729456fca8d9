// Package mailer provides the mail transports behind types.Mailer.
package mailer

import (
	"fmt"
	"time"

	"github.com/caliper-tracking/caliper-tracking-backend/config"
	"github.com/caliper-tracking/caliper-tracking-backend/types"
)

// New returns the transport selected by cfg.Transport.
func New(cfg *config.EmailConfig) (types.Mailer, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Transport {
	case config.TransportSMTP:
		return NewSMTPMailer(SMTPOptions{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			UseTLS:   cfg.SMTPUseTLS,
			Timeout:  timeout,
		}), nil
	case config.TransportResend:
		return NewResendMailer(cfg.ResendAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown email transport %q", cfg.Transport)
	}
}
