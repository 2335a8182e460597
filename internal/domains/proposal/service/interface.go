package service

import (
	"context"

	"github.com/google/uuid"

	"bookshelf-backend/internal/domains/proposal/model"
	"bookshelf-backend/internal/shared"
)

// Service is the proposal workflow: member submissions, moderation
// listings and the approve/reject decisions.
//
// Every operation takes the resolved caller identity and enforces
// authorization itself; handlers only translate errors to HTTP.
type Service interface {
	// CreateBookProposal and CreateAuthorProposal record a submission as
	// pending. For trusted submitters (Identity.Bypass) the proposal is
	// approved in the same call with the submitter as decider, the
	// result carries the materialized catalogue entity, and no
	// notification is sent. Without bypass only Proposal is set.
	CreateBookProposal(ctx context.Context, identity shared.Identity, req model.CreateBookProposalRequest) (*model.DecisionResult, error)
	CreateAuthorProposal(ctx context.Context, identity shared.Identity, req model.CreateAuthorProposalRequest) (*model.DecisionResult, error)

	// List is the moderation view, admin only.
	List(ctx context.Context, identity shared.Identity, status string, limit, offset int) ([]model.Proposal, int64, error)

	// ListMine returns the caller's own submissions.
	ListMine(ctx context.Context, identity shared.Identity, status string, limit, offset int) ([]model.Proposal, int64, error)

	// GetByID returns one proposal to an admin or its submitter.
	GetByID(ctx context.Context, identity shared.Identity, id uuid.UUID) (*model.Proposal, error)

	// UpdateBookProposal edits a pending book proposal's payload, admin only.
	UpdateBookProposal(ctx context.Context, identity shared.Identity, id uuid.UUID, patch model.UpdateBookProposalRequest) (*model.Proposal, error)

	// Approve and Reject decide a pending proposal, admin only. The
	// submitter is notified asynchronously after the decision commits.
	Approve(ctx context.Context, identity shared.Identity, id uuid.UUID) (*model.DecisionResult, error)
	Reject(ctx context.Context, identity shared.Identity, id uuid.UUID, req model.RejectProposalRequest) (*model.Proposal, error)
}
