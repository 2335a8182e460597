package repository

import (
	"context"

	"github.com/google/uuid"

	"bookshelf-backend/internal/domains/proposal/model"
)

// Repository owns proposal lifecycle data and the decision transactions.
//
// Two interchangeable implementations exist: a postgres one and an
// in-memory one. Callers and tests may use either; any behavioral
// divergence between them is a defect.
//
// Approve runs the full decision transaction: it locks the proposal row
// exclusively, verifies it is still pending (ErrProposalNotPending
// otherwise), materializes the catalogue entity (with case-insensitive
// author dedup and biography backfill) and flips the status, all
// atomically. Reject is a single conditional update on status=pending and
// reports ErrProposalNotFound for both unknown and already-decided ids.
type Repository interface {
	Create(ctx context.Context, proposal *model.Proposal) (*model.Proposal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Proposal, error)
	List(ctx context.Context, filter model.ListFilter) ([]model.Proposal, int64, error)
	UpdatePayload(ctx context.Context, id uuid.UUID, patch model.UpdateBookProposalRequest) (*model.Proposal, error)
	Approve(ctx context.Context, id, deciderID uuid.UUID) (*model.DecisionResult, error)
	Reject(ctx context.Context, id, deciderID uuid.UUID, reason *string) (*model.Proposal, error)
}
