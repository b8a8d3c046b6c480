package policies

import "context"

// Email is a plain-text message addressed to a single recipient.
type Email struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Email) error
}
