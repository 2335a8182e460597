package shared

import "github.com/google/uuid"

// Asynq task types and queues.
const (
	TypeProposalDecisionEmail = "proposal:decision_email"

	QueueNotification = "notification"
)

// Identity is the resolved caller, set by the auth middleware.
// Bypass marks members whose submissions skip moderation.
type Identity struct {
	UserID  uuid.UUID
	Email   string
	IsAdmin bool
	Bypass  bool
}
