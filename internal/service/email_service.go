package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/mail"
	"strings"

	"edu-platform/internal/mailer"
	"edu-platform/internal/model"
	"edu-platform/internal/util"
	"edu-platform/pkg/apierror"
)

const EmailTypeWelcome = "welcome"

//go:embed templates/*.html
var templateFS embed.FS

type welcomeData struct {
	AppName  string
	UserName string
}

type EmailService struct {
	sender    mailer.Sender
	appName   string
	templates *template.Template
}

func NewEmailService(sender mailer.Sender, appName string) (*EmailService, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	return &EmailService{sender: sender, appName: appName, templates: templates}, nil
}

// Compose validates the request and resolves subject and HTML. It never
// touches the transport, so validation failures are reported before any
// delivery attempt.
func (s *EmailService) Compose(req model.EmailRequest) (mailer.Message, error) {
	to := strings.TrimSpace(req.To)
	if to == "" {
		return mailer.Message{}, apierror.Validation("Recipient email (to) is required", "to")
	}

	if _, err := mail.ParseAddress(to); err != nil {
		return mailer.Message{}, apierror.Validation("Recipient email (to) is invalid", "to")
	}

	emailType := strings.ToLower(strings.TrimSpace(req.Type))
	html := req.HTML
	if strings.TrimSpace(html) == "" && emailType == EmailTypeWelcome {
		rendered, err := s.renderWelcome(req.Data)
		if err != nil {
			return mailer.Message{}, err
		}
		html = rendered
	}

	if strings.TrimSpace(html) == "" {
		return mailer.Message{}, apierror.Validation("Email content is required: provide html or a supported type", "html")
	}

	subject := util.SanitizeHeader(req.Subject)
	if subject == "" {
		subject = s.defaultSubject(emailType)
	}

	return mailer.Message{To: to, Subject: subject, HTML: html}, nil
}

func (s *EmailService) Deliver(ctx context.Context, msg mailer.Message) (model.EmailReceipt, error) {
	receipt, err := s.sender.Send(ctx, msg)
	if err != nil {
		return model.EmailReceipt{}, fmt.Errorf("send email: %w", err)
	}

	slog.Info("email sent", "provider", receipt.Provider, "message_id", receipt.MessageID)
	return receipt, nil
}

func (s *EmailService) renderWelcome(data map[string]any) (string, error) {
	userName := "there"
	if raw, ok := data["userName"]; ok && raw != nil {
		if name := util.SanitizeHeader(fmt.Sprint(raw)); name != "" {
			userName = name
		}
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "welcome.html", welcomeData{AppName: s.appName, UserName: userName}); err != nil {
		return "", fmt.Errorf("render welcome email: %w", err)
	}

	return buf.String(), nil
}

func (s *EmailService) defaultSubject(emailType string) string {
	if emailType == EmailTypeWelcome {
		return fmt.Sprintf("Welcome to %s!", s.appName)
	}
	return fmt.Sprintf("Message from %s", s.appName)
}
