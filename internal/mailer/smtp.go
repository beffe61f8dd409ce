package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"edu-platform/internal/model"
)

const ProviderSMTP = "smtp"

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLS      bool
	Timeout  time.Duration
}

type SMTPSender struct {
	cfg    SMTPConfig
	domain string
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	domain := cfg.Host
	if _, after, found := strings.Cut(cfg.From, "@"); found {
		domain = strings.Trim(after, "> ")
	}

	return &SMTPSender{cfg: cfg, domain: domain}, nil
}

func (s *SMTPSender) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
	}

	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	return mail.NewClient(s.cfg.Host, opts...)
}

// Send dials a fresh connection per message; clients are not shared between
// concurrent requests.
func (s *SMTPSender) Send(ctx context.Context, msg Message) (model.EmailReceipt, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return model.EmailReceipt{}, fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return model.EmailReceipt{}, fmt.Errorf("set recipient: %w", err)
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.domain)
	m.Subject(msg.Subject)
	m.SetGenHeader(mail.HeaderMessageID, messageID)
	m.SetDate()
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	client, err := s.client()
	if err != nil {
		return model.EmailReceipt{}, fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return model.EmailReceipt{}, fmt.Errorf("smtp send: %w", err)
	}

	return model.EmailReceipt{
		Provider:  ProviderSMTP,
		MessageID: messageID,
		Headers: map[string]string{
			"From":       s.cfg.From,
			"To":         msg.To,
			"Subject":    msg.Subject,
			"Message-ID": messageID,
		},
	}, nil
}
