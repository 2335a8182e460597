package email

import (
	"context"
	"fmt"
	"net/smtp"

	"bookshelf-backend/pkg/logger"
)

// ProposalDecisionData is the content of a moderation outcome email.
type ProposalDecisionData struct {
	Email       string
	Kind        string
	DisplayName string
	Decision    string
	Reason      *string
}

type EmailService interface {
	SendProposalDecisionEmail(ctx context.Context, data ProposalDecisionData) error
}

type smtpEmailService struct {
	smtpAddr string
	smtpFrom string
}

func NewSMTPEmailService(smtpHost, smtpPort, from string) EmailService {
	return &smtpEmailService{
		smtpAddr: smtpHost + ":" + smtpPort,
		smtpFrom: from,
	}
}

func (s *smtpEmailService) SendProposalDecisionEmail(ctx context.Context, data ProposalDecisionData) error {
	var subject, body string

	switch data.Decision {
	case "approved":
		subject = fmt.Sprintf("Your %s suggestion was added to the catalogue", data.Kind)
		body = fmt.Sprintf(`Hi,

Good news: your suggestion "%s" has been reviewed and added to the
Bookshelf catalogue. Thanks for helping grow the library!

The Bookshelf team`, data.DisplayName)
	default:
		subject = fmt.Sprintf("Your %s suggestion was not accepted", data.Kind)
		body = fmt.Sprintf(`Hi,

Your suggestion "%s" was reviewed but not added to the catalogue.`, data.DisplayName)
		if data.Reason != nil && *data.Reason != "" {
			body += fmt.Sprintf("\n\nModerator note: %s", *data.Reason)
		}
		body += "\n\nYou are welcome to submit a revised suggestion.\n\nThe Bookshelf team"
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.smtpFrom, data.Email, subject, body))

	if err := smtp.SendMail(s.smtpAddr, nil, s.smtpFrom, []string{data.Email}, msg); err != nil {
		logger.Warn("Failed to send decision email", map[string]interface{}{
			"error":     err.Error(),
			"to":        data.Email,
			"smtp_addr": s.smtpAddr,
		})
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
