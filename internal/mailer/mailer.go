// Package mailer holds the mail transports behind POST /api/email.
package mailer

import (
	"context"

	"edu-platform/internal/model"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers one message. Implementations own any timeout or retry
// policy; callers make a single attempt.
type Sender interface {
	Send(ctx context.Context, msg Message) (model.EmailReceipt, error)
}
