package notification

import (
	"context"

	"github.com/google/uuid"
)

// DecisionNotification carries everything the email worker needs, so the
// worker never reads the proposals table.
type DecisionNotification struct {
	ProposalID     uuid.UUID `json:"proposal_id"`
	Kind           string    `json:"kind"`
	DisplayName    string    `json:"display_name"`
	SubmitterEmail string    `json:"submitter_email"`
	Decision       string    `json:"decision"`
	Reason         *string   `json:"reason,omitempty"`
}

// Dispatcher hands a decision notification to the delivery side. Delivery
// is best effort: implementations log failures and never return them to
// the decision path.
type Dispatcher interface {
	NotifyProposalDecision(ctx context.Context, n DecisionNotification)
}
