package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cataloguemodel "bookshelf-backend/internal/domains/catalogue/model"
	cataloguestore "bookshelf-backend/internal/domains/catalogue/store"
	"bookshelf-backend/internal/domains/notification"
	"bookshelf-backend/internal/domains/proposal/model"
	"bookshelf-backend/internal/domains/proposal/repository"
	"bookshelf-backend/internal/infrastructure/storage"
	"bookshelf-backend/internal/shared"
)

// collectorDispatcher records notifications for assertions. Dispatch runs
// on a goroutine, so reads go through Wait.
type collectorDispatcher struct {
	mu       sync.Mutex
	received []notification.DecisionNotification
	notify   chan struct{}
}

func newCollectorDispatcher() *collectorDispatcher {
	return &collectorDispatcher{notify: make(chan struct{}, 64)}
}

func (c *collectorDispatcher) NotifyProposalDecision(ctx context.Context, n notification.DecisionNotification) {
	c.mu.Lock()
	c.received = append(c.received, n)
	c.mu.Unlock()
	c.notify <- struct{}{}
}

// Wait blocks until one notification arrives or the timeout passes.
func (c *collectorDispatcher) Wait(t *testing.T) notification.DecisionNotification {
	t.Helper()
	select {
	case <-c.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.received[len(c.received)-1]
}

func (c *collectorDispatcher) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

// recordingAssets tracks saves and deletes for the compensation test.
type recordingAssets struct {
	mu      sync.Mutex
	saved   []string
	deleted []string
}

func (r *recordingAssets) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, key)
	return key, nil
}

func (r *recordingAssets) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, key)
	return nil
}

// failingCreateRepo makes Create fail after the asset upload succeeded.
type failingCreateRepo struct {
	repository.Repository
}

func (f *failingCreateRepo) Create(ctx context.Context, p *model.Proposal) (*model.Proposal, error) {
	return nil, errors.New("storage unavailable")
}

type fixture struct {
	svc        Service
	repo       repository.Repository
	store      *cataloguestore.MemoryStore
	dispatcher *collectorDispatcher
}

func newFixture() *fixture {
	store := cataloguestore.NewMemoryStore()
	repo := repository.NewMemoryRepository(store)
	dispatcher := newCollectorDispatcher()
	svc := NewProposalService(repo, storage.NewMemoryStorage(), dispatcher)
	return &fixture{svc: svc, repo: repo, store: store, dispatcher: dispatcher}
}

func member() shared.Identity {
	return shared.Identity{UserID: uuid.New(), Email: "member@example.com"}
}

func adminIdentity() shared.Identity {
	return shared.Identity{UserID: uuid.New(), Email: "admin@example.com", IsAdmin: true}
}

func strPtr(s string) *string { return &s }

func authorRow(first, last string) cataloguemodel.Author {
	return cataloguemodel.Author{FirstName: first, LastName: last}
}

func TestSubmitAndRejectFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	submitter := member()
	admin := adminIdentity()

	created, err := f.svc.CreateBookProposal(ctx, submitter, model.CreateBookProposalRequest{
		Title:       "Dune",
		AuthorNames: []string{"Frank Herbert"},
	})
	require.NoError(t, err)

	p := created.Proposal
	assert.Equal(t, model.StatusPending, p.Status)
	assert.Equal(t, submitter.UserID, p.SubmittedBy)
	assert.Nil(t, p.DecidedBy)
	assert.Nil(t, created.Book)

	rejected, err := f.svc.Reject(ctx, admin, p.ID, model.RejectProposalRequest{Reason: strPtr("Doublon")})
	require.NoError(t, err)

	assert.Equal(t, model.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.DecidedBy)
	assert.Equal(t, admin.UserID, *rejected.DecidedBy)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "Doublon", *rejected.RejectionReason)

	// Second reject on the same id reads as not-found.
	_, err = f.svc.Reject(ctx, admin, p.ID, model.RejectProposalRequest{})
	assert.ErrorIs(t, err, model.ErrProposalNotFound)

	n := f.dispatcher.Wait(t)
	assert.Equal(t, "rejected", n.Decision)
	assert.Equal(t, "Dune", n.DisplayName)
	assert.Equal(t, "member@example.com", n.SubmitterEmail)
	require.NotNil(t, n.Reason)
	assert.Equal(t, "Doublon", *n.Reason)
}

func TestApproveAuthorBackfillsBiography(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := adminIdentity()

	row := authorRow("George", "Orwell")
	seeded, err := f.store.InsertAuthor(ctx, &row)
	require.NoError(t, err)

	created, err := f.svc.CreateAuthorProposal(ctx, member(), model.CreateAuthorProposalRequest{
		FirstName: "George",
		LastName:  "Orwell",
		Biography: strPtr("English novelist and essayist."),
	})
	require.NoError(t, err)

	result, err := f.svc.Approve(ctx, admin, created.Proposal.ID)
	require.NoError(t, err)

	require.NotNil(t, result.Author)
	assert.Equal(t, seeded.ID, result.Author.ID, "no second author row")
	require.NotNil(t, result.Author.Biography)
	assert.Equal(t, "English novelist and essayist.", *result.Author.Biography)
	assert.Equal(t, 1, f.store.AuthorCount())

	n := f.dispatcher.Wait(t)
	assert.Equal(t, "approved", n.Decision)
	assert.Equal(t, "George Orwell", n.DisplayName)
}

func TestPostDecisionImmutability(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := adminIdentity()

	created, err := f.svc.CreateBookProposal(ctx, member(), model.CreateBookProposalRequest{Title: "Dune"})
	require.NoError(t, err)
	id := created.Proposal.ID

	result, err := f.svc.Approve(ctx, admin, id)
	require.NoError(t, err)
	decidedAt := *result.Proposal.DecidedAt

	_, err = f.svc.UpdateBookProposal(ctx, admin, id, model.UpdateBookProposalRequest{Title: strPtr("Changed")})
	assert.ErrorIs(t, err, model.ErrProposalNotPending)

	_, err = f.svc.Approve(ctx, admin, id)
	assert.ErrorIs(t, err, model.ErrProposalNotPending)

	final, err := f.svc.GetByID(ctx, admin, id)
	require.NoError(t, err)
	assert.Equal(t, "Dune", *final.Title)
	assert.True(t, final.DecidedAt.Equal(decidedAt))
	assert.Nil(t, final.RejectionReason)
}

func TestBypassSubmissionNeverPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	trusted := member()
	trusted.Bypass = true

	result, err := f.svc.CreateBookProposal(ctx, trusted, model.CreateBookProposalRequest{Title: "Dune"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, result.Proposal.Status)
	require.NotNil(t, result.Proposal.DecidedBy)
	assert.Equal(t, trusted.UserID, *result.Proposal.DecidedBy, "submitter recorded as decider")
	require.NotNil(t, result.Book, "catalogue entity materialized in the same call")
	assert.Equal(t, 1, f.store.BookCount())

	pending := model.StatusPending
	listed, total, err := f.svc.List(ctx, adminIdentity(), string(pending), 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, listed)

	// Self-approval sends nothing.
	assert.Zero(t, f.dispatcher.Count())
}

func TestCoverUploadCompensation(t *testing.T) {
	ctx := context.Background()
	assets := &recordingAssets{}
	svc := NewProposalService(&failingCreateRepo{}, assets, newCollectorDispatcher())

	_, err := svc.CreateBookProposal(ctx, member(), model.CreateBookProposalRequest{
		Title:            "Dune",
		CoverImage:       []byte{0xFF, 0xD8, 0xFF},
		CoverContentType: "image/jpeg",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage unavailable")

	require.Len(t, assets.saved, 1)
	require.Len(t, assets.deleted, 1)
	assert.Equal(t, assets.saved[0], assets.deleted[0], "orphaned cover removed")
}

func TestAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	submitter := member()
	stranger := member()
	admin := adminIdentity()

	created, err := f.svc.CreateBookProposal(ctx, submitter, model.CreateBookProposalRequest{Title: "Dune"})
	require.NoError(t, err)
	id := created.Proposal.ID

	_, err = f.svc.CreateBookProposal(ctx, shared.Identity{}, model.CreateBookProposalRequest{Title: "Dune"})
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	_, _, err = f.svc.List(ctx, submitter, "", 10, 0)
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.svc.GetByID(ctx, stranger, id)
	assert.ErrorIs(t, err, model.ErrForbidden)

	got, err := f.svc.GetByID(ctx, submitter, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = f.svc.Approve(ctx, submitter, id)
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.svc.Reject(ctx, stranger, id, model.RejectProposalRequest{})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.svc.UpdateBookProposal(ctx, stranger, id, model.UpdateBookProposalRequest{Title: strPtr("x")})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.svc.Approve(ctx, admin, id)
	require.NoError(t, err)
}

func TestListMineScopesToCaller(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := member()
	bob := member()

	_, err := f.svc.CreateBookProposal(ctx, alice, model.CreateBookProposalRequest{Title: "Hers"})
	require.NoError(t, err)
	_, err = f.svc.CreateBookProposal(ctx, bob, model.CreateBookProposalRequest{Title: "His"})
	require.NoError(t, err)

	mine, total, err := f.svc.ListMine(ctx, alice, "", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, mine, 1)
	assert.Equal(t, alice.UserID, mine[0].SubmittedBy)
}

func TestListCapsAndDefaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := adminIdentity()
	submitter := member()

	for i := 0; i < 25; i++ {
		_, err := f.svc.CreateBookProposal(ctx, submitter, model.CreateBookProposalRequest{Title: "Book"})
		require.NoError(t, err)
	}

	// Zero limit falls back to the default page size.
	page, total, err := f.svc.List(ctx, admin, "", 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	assert.Len(t, page, 20)

	// Oversized limit is capped, negative offset clamped.
	page, _, err = f.svc.List(ctx, admin, "", 1000, -5)
	require.NoError(t, err)
	assert.Len(t, page, 25)

	// Unknown status string means no status filter.
	page, _, err = f.svc.List(ctx, admin, "bogus", 100, 0)
	require.NoError(t, err)
	assert.Len(t, page, 25)
}

func TestInputNormalization(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.svc.CreateBookProposal(ctx, member(), model.CreateBookProposalRequest{
		Title:       "  Dune  ",
		ISBN:        strPtr("  9780441013593 "),
		Summary:     strPtr("   "),
		ReleaseDate: strPtr("01/08/1965"),
		AuthorNames: []string{" Frank Herbert ", "Frank Herbert", ""},
	})
	require.NoError(t, err)

	p := created.Proposal
	assert.Equal(t, "Dune", *p.Title)
	assert.Equal(t, "9780441013593", *p.ISBN)
	assert.Nil(t, p.Summary, "blank optional collapses to absent")
	require.NotNil(t, p.ReleaseDate)
	assert.Equal(t, "1965-08-01", *p.ReleaseDate)
	assert.Equal(t, []string{"Frank Herbert"}, p.AuthorNames)
}

func TestInvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := adminIdentity()

	_, err := f.svc.CreateBookProposal(ctx, member(), model.CreateBookProposalRequest{Title: ""})
	assert.Error(t, err)

	_, err = f.svc.CreateBookProposal(ctx, member(), model.CreateBookProposalRequest{
		Title:       "Dune",
		ReleaseDate: strPtr("not a date"),
	})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = f.svc.CreateAuthorProposal(ctx, member(), model.CreateAuthorProposalRequest{FirstName: "George"})
	assert.Error(t, err)

	created, err := f.svc.CreateBookProposal(ctx, member(), model.CreateBookProposalRequest{Title: "Dune"})
	require.NoError(t, err)

	// Empty patch body.
	_, err = f.svc.UpdateBookProposal(ctx, admin, created.Proposal.ID, model.UpdateBookProposalRequest{})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	// Book patch on an author proposal.
	authorCreated, err := f.svc.CreateAuthorProposal(ctx, member(), model.CreateAuthorProposalRequest{
		FirstName: "Frank",
		LastName:  "Herbert",
	})
	require.NoError(t, err)
	_, err = f.svc.UpdateBookProposal(ctx, admin, authorCreated.Proposal.ID, model.UpdateBookProposalRequest{Title: strPtr("x")})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestUpdateFieldClearing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := adminIdentity()

	created, err := f.svc.CreateBookProposal(ctx, member(), model.CreateBookProposalRequest{
		Title: "Dune",
		ISBN:  strPtr("9780441013593"),
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateBookProposal(ctx, admin, created.Proposal.ID, model.UpdateBookProposalRequest{
		ISBN:        strPtr(""),
		ReleaseDate: strPtr("1965-08-01"),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.ISBN, "explicit empty clears the field")
	require.NotNil(t, updated.ReleaseDate)
	assert.Equal(t, "1965-08-01", *updated.ReleaseDate)
	assert.Equal(t, "Dune", *updated.Title)
}
