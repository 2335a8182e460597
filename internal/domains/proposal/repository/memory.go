package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	cataloguemodel "bookshelf-backend/internal/domains/catalogue/model"
	cataloguestore "bookshelf-backend/internal/domains/catalogue/store"
	"bookshelf-backend/internal/domains/proposal/model"
)

// memoryRepository implements Repository over process-local maps. It
// mirrors the postgres implementation's observable behavior, including
// the exactly-one-winner decision guarantee.
type memoryRepository struct {
	mu        sync.RWMutex
	proposals map[uuid.UUID]*model.Proposal
	catalogue cataloguestore.Store

	// decideMu serializes Approve and Reject across all proposals, playing
	// the role of the postgres row lock plus conditional update. The
	// catalogue dedup lookup and the status flip must not interleave with
	// another decision.
	decideMu sync.Mutex
}

func NewMemoryRepository(catalogue cataloguestore.Store) Repository {
	return &memoryRepository{
		proposals: make(map[uuid.UUID]*model.Proposal),
		catalogue: catalogue,
	}
}

func (r *memoryRepository) Create(ctx context.Context, proposal *model.Proposal) (*model.Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	stored := copyProposal(proposal)
	stored.ID = uuid.New()
	stored.Status = model.StatusPending
	stored.SubmittedAt = now
	stored.DecidedBy = nil
	stored.DecidedAt = nil
	stored.RejectionReason = nil
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.proposals[stored.ID] = stored
	return copyProposal(stored), nil
}

func (r *memoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.proposals[id]
	if !ok {
		return nil, model.ErrProposalNotFound
	}
	return copyProposal(p), nil
}

func (r *memoryRepository) List(ctx context.Context, filter model.ListFilter) ([]model.Proposal, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*model.Proposal
	for _, p := range r.proposals {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.SubmittedBy != nil && p.SubmittedBy != *filter.SubmittedBy {
			continue
		}
		matched = append(matched, p)
	}

	// Newest submissions first, id as a stable tiebreaker for equal
	// timestamps within one clock tick.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].SubmittedAt.Equal(matched[j].SubmittedAt) {
			return matched[i].SubmittedAt.After(matched[j].SubmittedAt)
		}
		return matched[i].ID.String() > matched[j].ID.String()
	})

	total := int64(len(matched))

	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]model.Proposal, 0, end-start)
	for _, p := range matched[start:end] {
		page = append(page, *copyProposal(p))
	}

	return page, total, nil
}

func (r *memoryRepository) UpdatePayload(ctx context.Context, id uuid.UUID, patch model.UpdateBookProposalRequest) (*model.Proposal, error) {
	// Edits take the decision lock too: a pending check made while an
	// approval is mid-flight must not land, matching the postgres UPDATE
	// that blocks on the approval's row lock and then fails its guard.
	r.decideMu.Lock()
	defer r.decideMu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.proposals[id]
	if !ok {
		return nil, model.ErrProposalNotFound
	}
	if !p.IsPending() {
		return nil, model.ErrProposalNotPending
	}

	if patch.Title != nil {
		p.Title = copyString(patch.Title)
	}
	if patch.ISBN != nil {
		p.ISBN = emptyToNil(patch.ISBN)
	}
	if patch.Edition != nil {
		p.Edition = emptyToNil(patch.Edition)
	}
	if patch.Volume != nil {
		p.Volume = copyInt(patch.Volume)
	}
	if patch.Summary != nil {
		p.Summary = emptyToNil(patch.Summary)
	}
	if patch.ReleaseDate != nil {
		p.ReleaseDate = emptyToNil(patch.ReleaseDate)
	}
	if patch.AuthorNames != nil {
		p.AuthorNames = append([]string(nil), patch.AuthorNames...)
	}
	if patch.GenreNames != nil {
		p.GenreNames = append([]string(nil), patch.GenreNames...)
	}
	p.UpdatedAt = time.Now()

	return copyProposal(p), nil
}

func (r *memoryRepository) Approve(ctx context.Context, id, deciderID uuid.UUID) (*model.DecisionResult, error) {
	r.decideMu.Lock()
	defer r.decideMu.Unlock()

	r.mu.RLock()
	p, ok := r.proposals[id]
	if ok {
		p = copyProposal(p)
	}
	r.mu.RUnlock()

	if !ok {
		return nil, model.ErrProposalNotFound
	}
	if !p.IsPending() {
		return nil, model.ErrProposalNotPending
	}

	res := &model.DecisionResult{}

	switch p.Kind {
	case model.KindBook:
		book, err := r.catalogue.InsertBook(ctx, bookFromProposal(p))
		if err != nil {
			return nil, err
		}
		res.Book = book

	case model.KindAuthor:
		existing, err := r.catalogue.FindAuthorByName(ctx, *p.FirstName, *p.LastName)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			hasBio := existing.Biography != nil && *existing.Biography != ""
			if !hasBio && p.Biography != nil {
				existing, err = r.catalogue.UpdateAuthorBiography(ctx, existing.ID, *p.Biography)
				if err != nil {
					return nil, err
				}
			}
			res.Author = existing
		} else {
			created, err := r.catalogue.InsertAuthor(ctx, &cataloguemodel.Author{
				FirstName: *p.FirstName,
				LastName:  *p.LastName,
				Biography: p.Biography,
			})
			if err != nil {
				return nil, err
			}
			res.Author = created
		}

	default:
		return nil, fmt.Errorf("unknown proposal kind: %q", p.Kind)
	}

	now := time.Now()

	r.mu.Lock()
	stored := r.proposals[id]
	stored.Status = model.StatusApproved
	stored.DecidedBy = &deciderID
	stored.DecidedAt = &now
	stored.RejectionReason = nil
	stored.UpdatedAt = now
	res.Proposal = copyProposal(stored)
	r.mu.Unlock()

	return res, nil
}

func (r *memoryRepository) Reject(ctx context.Context, id, deciderID uuid.UUID, reason *string) (*model.Proposal, error) {
	r.decideMu.Lock()
	defer r.decideMu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.proposals[id]
	if !ok || !p.IsPending() {
		// Matches the postgres conditional update: already-decided reads
		// as not-found.
		return nil, model.ErrProposalNotFound
	}

	now := time.Now()
	p.Status = model.StatusRejected
	p.DecidedBy = &deciderID
	p.DecidedAt = &now
	p.RejectionReason = copyString(reason)
	p.UpdatedAt = now

	return copyProposal(p), nil
}

func copyProposal(p *model.Proposal) *model.Proposal {
	c := *p
	c.DecidedBy = copyUUID(p.DecidedBy)
	c.DecidedAt = copyTime(p.DecidedAt)
	c.RejectionReason = copyString(p.RejectionReason)
	c.Title = copyString(p.Title)
	c.ISBN = copyString(p.ISBN)
	c.Edition = copyString(p.Edition)
	c.Volume = copyInt(p.Volume)
	c.Summary = copyString(p.Summary)
	c.ReleaseDate = copyString(p.ReleaseDate)
	if p.AuthorNames != nil {
		c.AuthorNames = append([]string(nil), p.AuthorNames...)
	}
	if p.GenreNames != nil {
		c.GenreNames = append([]string(nil), p.GenreNames...)
	}
	c.CoverImagePath = copyString(p.CoverImagePath)
	c.FirstName = copyString(p.FirstName)
	c.LastName = copyString(p.LastName)
	c.Biography = copyString(p.Biography)
	return &c
}

// emptyToNil mirrors the postgres backend, where an explicit empty
// string clears the column to NULL.
func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return copyString(s)
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func copyUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
