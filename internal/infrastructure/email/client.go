// Package email provides the email client for sending contact form mail.
package email

import (
	"context"
	"fmt"

	"github.com/AtRiskMedia/storyreader-go/internal/application/services"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/email/templates"
	"github.com/resendlabs/resend-go"
)

// ResendClient delivers contact messages through the Resend API.
type ResendClient struct {
	client    *resend.Client
	toEmail   string
	fromEmail string
	fromName  string
}

// NewResendClient creates a mail client. It fails when the API key or recipient
// is missing so callers can leave the contact form disabled.
func NewResendClient(apiKey, toEmail, fromEmail, fromName string) (*ResendClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY is required")
	}
	if toEmail == "" {
		return nil, fmt.Errorf("CONTACT_EMAIL_TO is required")
	}
	return &ResendClient{
		client:    resend.NewClient(apiKey),
		toEmail:   toEmail,
		fromEmail: fromEmail,
		fromName:  fromName,
	}, nil
}

// SendContact composes and sends a contact form submission.
func (c *ResendClient) SendContact(ctx context.Context, msg services.ContactInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content := templates.GetContactEmailContent(templates.ContactEmailProps{
		Name:    msg.Name,
		Email:   msg.Email,
		Message: msg.Message,
	})

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{c.toEmail},
		ReplyTo: msg.Email,
		Subject: fmt.Sprintf("Story Reader message from %s", msg.Name),
		Html:    templates.GetEmailLayout(templates.EmailLayoutProps{Content: content, Preheader: "New contact form message"}),
		Text:    msg.Message,
	}

	if _, err := c.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send contact email via Resend: %w", err)
	}
	return nil
}
