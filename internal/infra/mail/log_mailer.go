// Package mail delivers notification emails.
package mail

import (
	"context"
	"log/slog"

	"travelstay/internal/app/policies"
)

// LogMailer writes outgoing emails to the log instead of an SMTP relay.
type LogMailer struct {
	From   string
	Logger *slog.Logger
}

func (m LogMailer) Send(ctx context.Context, msg policies.Email) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "email sent",
		"from", m.From,
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}

var _ policies.Mailer = LogMailer{}
