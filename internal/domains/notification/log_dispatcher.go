package notification

import (
	"context"

	"bookshelf-backend/pkg/logger"
)

// LogDispatcher records decisions in the log instead of sending email.
// Used by the in-memory backend, which runs without Redis.
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) NotifyProposalDecision(ctx context.Context, n DecisionNotification) {
	fields := map[string]interface{}{
		"proposal_id": n.ProposalID,
		"kind":        n.Kind,
		"name":        n.DisplayName,
		"decision":    n.Decision,
		"email":       n.SubmitterEmail,
	}
	if n.Reason != nil {
		fields["reason"] = *n.Reason
	}
	logger.Info("Proposal decision notification", fields)
}
