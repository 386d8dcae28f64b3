package service

import (
	"context"
)

// PushMessage is one notification addressed to every device of a user.
type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

// PushReport counts the outcome of a fan-out. InvalidTokens lists tokens
// the provider reported as dead; their devices should be deactivated.
type PushReport struct {
	Sent          int
	Failed        int
	InvalidTokens []string
}

// PushSender delivers push notifications to device tokens.
type PushSender interface {
	Push(ctx context.Context, tokens []string, msg PushMessage) (*PushReport, error)
}

// Mailer sends plain-text e-mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
