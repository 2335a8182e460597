package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"bookshelf-backend/internal/domains/notification"
	"bookshelf-backend/internal/infrastructure/email"
	"bookshelf-backend/internal/shared/utils"
)

// DecisionEmailHandler delivers moderation outcome emails enqueued by the
// API side after a proposal decision commits.
type DecisionEmailHandler struct {
	emailService email.EmailService
}

func NewDecisionEmailHandler(emailService email.EmailService) *DecisionEmailHandler {
	return &DecisionEmailHandler{
		emailService: emailService,
	}
}

func (h *DecisionEmailHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload notification.DecisionNotification
	if err := utils.UnmarshalTask(task, &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal decision email payload")
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	log.Info().
		Str("proposal_id", payload.ProposalID.String()).
		Str("decision", payload.Decision).
		Msg("Processing proposal decision email")

	data := email.ProposalDecisionData{
		Email:       payload.SubmitterEmail,
		Kind:        payload.Kind,
		DisplayName: payload.DisplayName,
		Decision:    payload.Decision,
		Reason:      payload.Reason,
	}

	if err := h.emailService.SendProposalDecisionEmail(ctx, data); err != nil {
		log.Error().Err(err).Msg("Failed to send decision email")
		return fmt.Errorf("send decision email: %w", err)
	}

	log.Info().
		Str("email", payload.SubmitterEmail).
		Msg("Decision email sent successfully")

	return nil
}
