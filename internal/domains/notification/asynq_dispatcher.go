package notification

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"bookshelf-backend/internal/shared"
	"bookshelf-backend/internal/shared/utils"
	"bookshelf-backend/pkg/logger"
)

// AsynqDispatcher enqueues decision emails onto the notification queue.
// Enqueue failures are logged and swallowed; the decision has already
// committed by the time this runs and must not be reported as failed.
type AsynqDispatcher struct {
	client *asynq.Client
}

func NewAsynqDispatcher(client *asynq.Client) *AsynqDispatcher {
	return &AsynqDispatcher{client: client}
}

func (d *AsynqDispatcher) NotifyProposalDecision(ctx context.Context, n DecisionNotification) {
	if n.SubmitterEmail == "" {
		logger.Warn("Skipping decision notification without submitter email", map[string]interface{}{
			"proposal_id": n.ProposalID,
		})
		return
	}

	task, err := utils.MarshalTask(shared.TypeProposalDecisionEmail, n)
	if err != nil {
		logger.Warn("Failed to marshal decision notification task", map[string]interface{}{
			"proposal_id": n.ProposalID,
			"error":       err.Error(),
		})
		return
	}

	_, err = d.client.Enqueue(task,
		asynq.Queue(shared.QueueNotification),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		logger.Warn("Failed to enqueue decision notification", map[string]interface{}{
			"proposal_id": n.ProposalID,
			"decision":    n.Decision,
			"error":       err.Error(),
		})
		return
	}

	logger.Info("Enqueued proposal decision notification", map[string]interface{}{
		"proposal_id": n.ProposalID,
		"decision":    n.Decision,
		"email":       n.SubmitterEmail,
	})
}
