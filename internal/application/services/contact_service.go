package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/apperr"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
)

const maxContactMessageLength = 5000

// Mailer delivers a contact message to the site owner.
type Mailer interface {
	SendContact(ctx context.Context, msg ContactInput) error
}

// ContactInput is a message submitted through the contact form.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ContactService validates contact form submissions and hands them to the mailer.
type ContactService struct {
	mailer Mailer
	logger *logging.ChanneledLogger
}

// NewContactService creates a new contact service. A nil mailer disables the form.
func NewContactService(mailer Mailer, logger *logging.ChanneledLogger) *ContactService {
	return &ContactService{mailer: mailer, logger: logger}
}

// Enabled reports whether contact messages can be delivered.
func (s *ContactService) Enabled() bool {
	return s.mailer != nil
}

// Send validates the submission and delivers it.
func (s *ContactService) Send(ctx context.Context, input ContactInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Message = strings.TrimSpace(input.Message)

	if input.Name == "" {
		return apperr.Invalid("name", "must not be empty")
	}
	if input.Email == "" {
		return apperr.Invalid("email", "must not be empty")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return apperr.Invalid("email", "is not a valid address")
	}
	if input.Message == "" {
		return apperr.Invalid("message", "must not be empty")
	}
	if utf8.RuneCountInString(input.Message) > maxContactMessageLength {
		return apperr.Invalid("message", fmt.Sprintf("must be at most %d characters", maxContactMessageLength))
	}

	if s.mailer == nil {
		return apperr.Unavailable("contact", fmt.Errorf("mail delivery is not configured"))
	}
	if err := s.mailer.SendContact(ctx, input); err != nil {
		s.logger.System().Error("Contact message delivery failed", "error", err.Error())
		return apperr.Unavailable("contact", err)
	}

	s.logger.System().Info("Contact message sent", "nameLength", len(input.Name))
	return nil
}
