// utils/email.go
package utils

import (
	"fmt"
	"log/slog"
	"strings"

	"event-registration/models"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers a single message
type Mailer interface {
	Send(to, subject, html, text string) error
}

type sendgridMailer struct {
	client *sendgrid.Client
	from   string
}

func (m *sendgridMailer) Send(to, subject, html, text string) error {
	msg := mail.NewSingleEmail(mail.NewEmail("", m.from), subject, mail.NewEmail("", to), text, html)
	resp, err := m.client.Send(msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

type postmarkMailer struct {
	client *postmark.Client
	from   string
}

func (m *postmarkMailer) Send(to, subject, html, text string) error {
	_, err := m.client.SendEmail(postmark.Email{
		From:     m.from,
		To:       to,
		Subject:  subject,
		HtmlBody: html,
		TextBody: text,
	})
	return err
}

// EmailService sends registration mail through the configured provider.
// A nil mailer disables sending.
type EmailService struct {
	mailer Mailer
}

// NewEmailService picks a provider by name ("sendgrid" or "postmark")
func NewEmailService(cfg Config) *EmailService {
	switch strings.ToLower(cfg.EmailProvider) {
	case "sendgrid":
		if cfg.SendgridKey != "" {
			return &EmailService{mailer: &sendgridMailer{client: sendgrid.NewSendClient(cfg.SendgridKey), from: cfg.EmailSender}}
		}
	case "postmark":
		if cfg.PostmarkToken != "" {
			return &EmailService{mailer: &postmarkMailer{client: postmark.NewClient(cfg.PostmarkToken, ""), from: cfg.EmailSender}}
		}
	case "":
		slog.Info("email disabled")
		return &EmailService{}
	}
	slog.Warn("email provider missing credentials, email disabled", "provider", cfg.EmailProvider)
	return &EmailService{}
}

// NewEmailServiceWithMailer wraps an existing Mailer
func NewEmailServiceWithMailer(m Mailer) *EmailService {
	return &EmailService{mailer: m}
}

// Enabled reports whether messages will actually be sent
func (es *EmailService) Enabled() bool {
	return es != nil && es.mailer != nil
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent, textContent string) error {
	if !es.Enabled() {
		return nil
	}
	if err := es.mailer.Send(toEmail, subject, htmlContent, textContent); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendRegistrationConfirmation tells the payer their entry is recorded
func (es *EmailService) SendRegistrationConfirmation(reg models.Registration) error {
	subject := fmt.Sprintf("Registration confirmed - %s", reg.SportName)
	text := fmt.Sprintf(
		"Dear %s,\n\nYour registration for %s is confirmed.\nRegistration ID: %s\nPayment ID: %s\nAmount: %.2f\n",
		reg.Name, reg.SportName, reg.ID.Hex(), reg.PaymentID, reg.Amount,
	)
	html := fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>Your registration for <strong>%s</strong> is confirmed.<br>Registration ID: <strong>%s</strong><br>Payment ID: %s<br>Amount: <strong>%.2f</strong>",
		reg.Name, reg.SportName, reg.ID.Hex(), reg.PaymentID, reg.Amount,
	)
	if reg.DocumentPending {
		text += "\nWe did not receive your Aadhar card photo. Please upload it before the event.\n"
		html += "<br><br>We did not receive your Aadhar card photo. Please upload it before the event."
	}
	return es.SendEmail(reg.Email, subject, html, text)
}
