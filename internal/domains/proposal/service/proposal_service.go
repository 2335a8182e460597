package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"bookshelf-backend/internal/domains/notification"
	"bookshelf-backend/internal/domains/proposal/model"
	"bookshelf-backend/internal/domains/proposal/repository"
	"bookshelf-backend/internal/infrastructure/storage"
	"bookshelf-backend/internal/shared"
	"bookshelf-backend/internal/shared/utils"
	"bookshelf-backend/pkg/logger"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type proposalService struct {
	repo       repository.Repository
	assets     storage.AssetStore
	dispatcher notification.Dispatcher
}

func NewProposalService(
	repo repository.Repository,
	assets storage.AssetStore,
	dispatcher notification.Dispatcher,
) Service {
	return &proposalService{
		repo:       repo,
		assets:     assets,
		dispatcher: dispatcher,
	}
}

func (s *proposalService) CreateBookProposal(ctx context.Context, identity shared.Identity, req model.CreateBookProposalRequest) (*model.DecisionResult, error) {
	if identity.UserID == uuid.Nil {
		return nil, model.ErrUnauthenticated
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	title := utils.TrimToNil(&req.Title)
	if title == nil {
		return nil, model.ErrInvalidInput
	}

	proposal := &model.Proposal{
		Kind:           model.KindBook,
		SubmittedBy:    identity.UserID,
		SubmitterEmail: identity.Email,
		Title:          title,
		ISBN:           utils.TrimToNil(req.ISBN),
		Edition:        utils.TrimToNil(req.Edition),
		Volume:         req.Volume,
		Summary:        utils.TrimToNil(req.Summary),
		AuthorNames:    utils.DedupeNames(req.AuthorNames),
		GenreNames:     utils.DedupeNames(req.GenreNames),
	}

	if date := utils.TrimToNil(req.ReleaseDate); date != nil {
		normalized, err := utils.NormalizeDate(*date)
		if err != nil {
			return nil, model.ErrInvalidInput
		}
		proposal.ReleaseDate = &normalized
	}

	// The cover upload happens before the proposal row exists. If the row
	// never materializes the orphaned object is removed again.
	var coverKey string
	if len(req.CoverImage) > 0 {
		key := coverObjectKey(req.CoverContentType)
		stored, err := s.assets.Save(ctx, key, req.CoverImage, req.CoverContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to store cover image: %w", err)
		}
		coverKey = stored
		proposal.CoverImagePath = &coverKey
	}

	created, err := s.repo.Create(ctx, proposal)
	if err != nil {
		if coverKey != "" {
			if delErr := s.assets.Delete(ctx, coverKey); delErr != nil {
				logger.Warn("Failed to remove orphaned cover image", map[string]interface{}{
					"key":   coverKey,
					"error": delErr.Error(),
				})
			}
		}
		return nil, err
	}

	logger.Info("Book proposal submitted", map[string]interface{}{
		"proposal_id": created.ID,
		"title":       *created.Title,
		"submitter":   created.SubmittedBy,
	})

	return s.finalizeSubmission(ctx, identity, created)
}

func (s *proposalService) CreateAuthorProposal(ctx context.Context, identity shared.Identity, req model.CreateAuthorProposalRequest) (*model.DecisionResult, error) {
	if identity.UserID == uuid.Nil {
		return nil, model.ErrUnauthenticated
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	firstName := utils.TrimToNil(&req.FirstName)
	lastName := utils.TrimToNil(&req.LastName)
	if firstName == nil || lastName == nil {
		return nil, model.ErrInvalidInput
	}

	proposal := &model.Proposal{
		Kind:           model.KindAuthor,
		SubmittedBy:    identity.UserID,
		SubmitterEmail: identity.Email,
		FirstName:      firstName,
		LastName:       lastName,
		Biography:      utils.TrimToNil(req.Biography),
	}

	created, err := s.repo.Create(ctx, proposal)
	if err != nil {
		return nil, err
	}

	logger.Info("Author proposal submitted", map[string]interface{}{
		"proposal_id": created.ID,
		"name":        created.DisplayName(),
		"submitter":   created.SubmittedBy,
	})

	return s.finalizeSubmission(ctx, identity, created)
}

// finalizeSubmission applies the trusted-submitter shortcut: bypass
// submissions go through the regular approval transaction with the
// submitter recorded as decider, so the catalogue side effects are
// identical to a moderated approval. Self-approvals are not notified.
func (s *proposalService) finalizeSubmission(ctx context.Context, identity shared.Identity, created *model.Proposal) (*model.DecisionResult, error) {
	if !identity.Bypass {
		return &model.DecisionResult{Proposal: created}, nil
	}

	result, err := s.repo.Approve(ctx, created.ID, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to auto-approve submission: %w", err)
	}

	logger.Info("Submission auto-approved for trusted member", map[string]interface{}{
		"proposal_id": created.ID,
		"submitter":   identity.UserID,
	})

	return result, nil
}

func (s *proposalService) List(ctx context.Context, identity shared.Identity, status string, limit, offset int) ([]model.Proposal, int64, error) {
	if identity.UserID == uuid.Nil {
		return nil, 0, model.ErrUnauthenticated
	}
	if !identity.IsAdmin {
		return nil, 0, model.ErrForbidden
	}

	return s.repo.List(ctx, buildFilter(status, nil, limit, offset))
}

func (s *proposalService) ListMine(ctx context.Context, identity shared.Identity, status string, limit, offset int) ([]model.Proposal, int64, error) {
	if identity.UserID == uuid.Nil {
		return nil, 0, model.ErrUnauthenticated
	}

	submitter := identity.UserID
	return s.repo.List(ctx, buildFilter(status, &submitter, limit, offset))
}

func (s *proposalService) GetByID(ctx context.Context, identity shared.Identity, id uuid.UUID) (*model.Proposal, error) {
	if identity.UserID == uuid.Nil {
		return nil, model.ErrUnauthenticated
	}

	proposal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !identity.IsAdmin && proposal.SubmittedBy != identity.UserID {
		return nil, model.ErrForbidden
	}

	return proposal, nil
}

func (s *proposalService) UpdateBookProposal(ctx context.Context, identity shared.Identity, id uuid.UUID, patch model.UpdateBookProposalRequest) (*model.Proposal, error) {
	if identity.UserID == uuid.Nil {
		return nil, model.ErrUnauthenticated
	}
	if !identity.IsAdmin {
		return nil, model.ErrForbidden
	}
	if !patch.HasRecognizedField() {
		return nil, model.ErrInvalidInput
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Kind != model.KindBook {
		return nil, model.ErrInvalidInput
	}

	normalized, err := normalizePatch(patch)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdatePayload(ctx, id, normalized)
	if err != nil {
		return nil, err
	}

	logger.Info("Book proposal payload updated", map[string]interface{}{
		"proposal_id": id,
		"admin":       identity.UserID,
	})

	return updated, nil
}

func (s *proposalService) Approve(ctx context.Context, identity shared.Identity, id uuid.UUID) (*model.DecisionResult, error) {
	if identity.UserID == uuid.Nil {
		return nil, model.ErrUnauthenticated
	}
	if !identity.IsAdmin {
		return nil, model.ErrForbidden
	}

	result, err := s.repo.Approve(ctx, id, identity.UserID)
	if err != nil {
		return nil, err
	}

	logger.Info("Proposal approved", map[string]interface{}{
		"proposal_id": id,
		"kind":        result.Proposal.Kind,
		"decider":     identity.UserID,
	})

	s.notifyDecision(result.Proposal)

	return result, nil
}

func (s *proposalService) Reject(ctx context.Context, identity shared.Identity, id uuid.UUID, req model.RejectProposalRequest) (*model.Proposal, error) {
	if identity.UserID == uuid.Nil {
		return nil, model.ErrUnauthenticated
	}
	if !identity.IsAdmin {
		return nil, model.ErrForbidden
	}

	rejected, err := s.repo.Reject(ctx, id, identity.UserID, utils.TrimToNil(req.Reason))
	if err != nil {
		return nil, err
	}

	logger.Info("Proposal rejected", map[string]interface{}{
		"proposal_id": id,
		"kind":        rejected.Kind,
		"decider":     identity.UserID,
	})

	s.notifyDecision(rejected)

	return rejected, nil
}

// notifyDecision hands the committed decision to the dispatcher on its
// own goroutine. The request context may be cancelled the moment the
// response is written, so the dispatch gets a fresh one.
func (s *proposalService) notifyDecision(p *model.Proposal) {
	if p.DecidedBy != nil && *p.DecidedBy == p.SubmittedBy {
		// Self-approval by a trusted submitter, nothing to tell them.
		return
	}

	n := notification.DecisionNotification{
		ProposalID:     p.ID,
		Kind:           string(p.Kind),
		DisplayName:    p.DisplayName(),
		SubmitterEmail: p.SubmitterEmail,
		Decision:       string(p.Status),
		Reason:         p.RejectionReason,
	}

	go s.dispatcher.NotifyProposalDecision(context.Background(), n)
}

func buildFilter(status string, submittedBy *uuid.UUID, limit, offset int) model.ListFilter {
	filter := model.ListFilter{
		SubmittedBy: submittedBy,
		Limit:       limit,
		Offset:      offset,
	}

	if parsed, ok := model.ParseStatus(status); ok {
		filter.Status = &parsed
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return filter
}

// normalizePatch applies the same field normalization the create path
// uses. Clearing a field requires an explicit empty value; a present
// required field that trims to empty is rejected.
func normalizePatch(patch model.UpdateBookProposalRequest) (model.UpdateBookProposalRequest, error) {
	if patch.Title != nil {
		trimmed := utils.TrimToNil(patch.Title)
		if trimmed == nil {
			return patch, model.ErrInvalidInput
		}
		patch.Title = trimmed
	}

	patch.ISBN = trimOrEmpty(patch.ISBN)
	patch.Edition = trimOrEmpty(patch.Edition)
	patch.Summary = trimOrEmpty(patch.Summary)

	if patch.Volume != nil && *patch.Volume < 1 {
		return patch, model.ErrInvalidInput
	}

	if patch.ReleaseDate != nil {
		if *patch.ReleaseDate == "" {
			// Explicit clear.
		} else {
			normalized, err := utils.NormalizeDate(*patch.ReleaseDate)
			if err != nil {
				return patch, model.ErrInvalidInput
			}
			patch.ReleaseDate = &normalized
		}
	}

	if patch.AuthorNames != nil {
		deduped := utils.DedupeNames(patch.AuthorNames)
		if deduped == nil {
			deduped = []string{}
		}
		patch.AuthorNames = deduped
	}
	if patch.GenreNames != nil {
		deduped := utils.DedupeNames(patch.GenreNames)
		if deduped == nil {
			deduped = []string{}
		}
		patch.GenreNames = deduped
	}

	return patch, nil
}

// trimOrEmpty trims a present optional field but keeps an explicit empty
// string as a clear marker instead of collapsing it to nil.
func trimOrEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := *s
	if t := utils.TrimToNil(s); t != nil {
		trimmed = *t
	} else {
		trimmed = ""
	}
	return &trimmed
}

func coverObjectKey(contentType string) string {
	ext := ".jpg"
	if contentType == "image/png" {
		ext = ".png"
	}
	return "proposals/covers/" + uuid.New().String() + ext
}
