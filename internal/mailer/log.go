package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"edu-platform/internal/model"
)

const ProviderLog = "log"

// LogSender is used when no SMTP host is configured: the message is logged
// instead of delivered.
type LogSender struct {
	from string
	log  *slog.Logger
}

func NewLogSender(from string, log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogSender{from: from, log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) (model.EmailReceipt, error) {
	if err := ctx.Err(); err != nil {
		return model.EmailReceipt{}, err
	}

	messageID := fmt.Sprintf("<%s@localhost>", uuid.NewString())
	s.log.InfoContext(ctx, "email captured",
		"to", msg.To,
		"subject", msg.Subject,
		"message_id", messageID,
		"html_bytes", len(msg.HTML),
	)

	return model.EmailReceipt{
		Provider:  ProviderLog,
		MessageID: messageID,
		Headers: map[string]string{
			"From":       s.from,
			"To":         msg.To,
			"Subject":    msg.Subject,
			"Message-ID": messageID,
		},
	}, nil
}
