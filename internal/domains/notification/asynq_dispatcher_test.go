package notification

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closedClient returns an asynq client whose Enqueue always fails.
func closedClient(t *testing.T) *asynq.Client {
	t.Helper()
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: "127.0.0.1:6379"})
	require.NoError(t, client.Close())
	return client
}

func TestNotifyProposalDecisionSwallowsEnqueueFailure(t *testing.T) {
	d := NewAsynqDispatcher(closedClient(t))

	reason := "Duplicate of an existing record."
	n := DecisionNotification{
		ProposalID:     uuid.New(),
		Kind:           "book",
		DisplayName:    "Dune",
		SubmitterEmail: "member@example.com",
		Decision:       "rejected",
		Reason:         &reason,
	}

	assert.NotPanics(t, func() {
		d.NotifyProposalDecision(context.Background(), n)
	})
}

func TestNotifyProposalDecisionSkipsWithoutEmail(t *testing.T) {
	d := NewAsynqDispatcher(closedClient(t))

	assert.NotPanics(t, func() {
		d.NotifyProposalDecision(context.Background(), DecisionNotification{
			ProposalID:  uuid.New(),
			Kind:        "author",
			DisplayName: "George Orwell",
			Decision:    "approved",
		})
	})
}
