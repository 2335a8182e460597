package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cataloguemodel "bookshelf-backend/internal/domains/catalogue/model"
	cataloguestore "bookshelf-backend/internal/domains/catalogue/store"
	"bookshelf-backend/internal/domains/proposal/model"
)

func authorFixture(first, last string) cataloguemodel.Author {
	return cataloguemodel.Author{FirstName: first, LastName: last}
}

func newTestRepo() (Repository, *cataloguestore.MemoryStore) {
	store := cataloguestore.NewMemoryStore()
	return NewMemoryRepository(store), store
}

func newBookProposal(submitter uuid.UUID, title string) *model.Proposal {
	return &model.Proposal{
		Kind:           model.KindBook,
		SubmittedBy:    submitter,
		SubmitterEmail: "member@example.com",
		Title:          &title,
	}
}

func newAuthorProposal(submitter uuid.UUID, first, last string, bio *string) *model.Proposal {
	return &model.Proposal{
		Kind:           model.KindAuthor,
		SubmittedBy:    submitter,
		SubmitterEmail: "member@example.com",
		FirstName:      &first,
		LastName:       &last,
		Biography:      bio,
	}
}

func TestCreateAssignsPendingState(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo()
	submitter := uuid.New()

	created, err := repo.Create(ctx, newBookProposal(submitter, "Dune"))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Equal(t, submitter, created.SubmittedBy)
	assert.Nil(t, created.DecidedBy)
	assert.Nil(t, created.DecidedAt)
	assert.Nil(t, created.RejectionReason)
	assert.False(t, created.SubmittedAt.IsZero())
}

func TestGetByIDUnknown(t *testing.T) {
	repo, _ := newTestRepo()

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, model.ErrProposalNotFound)
}

func TestListOrderingAndFilters(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo()
	alice := uuid.New()
	bob := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, newBookProposal(alice, fmt.Sprintf("Alice %d", i)))
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	bobsProposal, err := repo.Create(ctx, newBookProposal(bob, "Bob 0"))
	require.NoError(t, err)

	all, total, err := repo.List(ctx, model.ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, all, 4)
	assert.Equal(t, "Bob 0", *all[0].Title, "newest submission first")

	for i := 1; i < len(all); i++ {
		assert.False(t, all[i-1].SubmittedAt.Before(all[i].SubmittedAt))
	}

	mine, total, err := repo.List(ctx, model.ListFilter{SubmittedBy: &bob, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, mine, 1)
	assert.Equal(t, bobsProposal.ID, mine[0].ID)

	// Decide one, then filter by status.
	admin := uuid.New()
	_, err = repo.Reject(ctx, bobsProposal.ID, admin, nil)
	require.NoError(t, err)

	rejected := model.StatusRejected
	got, total, err := repo.List(ctx, model.ListFilter{Status: &rejected, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, bobsProposal.ID, got[0].ID)
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo()
	submitter := uuid.New()

	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, newBookProposal(submitter, fmt.Sprintf("Book %d", i)))
		require.NoError(t, err)
	}

	page, total, err := repo.List(ctx, model.ListFilter{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, page, 2)

	page, _, err = repo.List(ctx, model.ListFilter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	page, _, err = repo.List(ctx, model.ListFilter{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestUpdatePayloadGuards(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo()
	submitter := uuid.New()
	admin := uuid.New()

	created, err := repo.Create(ctx, newBookProposal(submitter, "Dune"))
	require.NoError(t, err)

	newTitle := "Dune Messiah"
	updated, err := repo.UpdatePayload(ctx, created.ID, model.UpdateBookProposalRequest{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", *updated.Title)

	_, err = repo.UpdatePayload(ctx, uuid.New(), model.UpdateBookProposalRequest{Title: &newTitle})
	assert.ErrorIs(t, err, model.ErrProposalNotFound)

	_, err = repo.Reject(ctx, created.ID, admin, nil)
	require.NoError(t, err)

	_, err = repo.UpdatePayload(ctx, created.ID, model.UpdateBookProposalRequest{Title: &newTitle})
	assert.ErrorIs(t, err, model.ErrProposalNotPending)
}

func TestUpdatePayloadClearsWithExplicitEmpty(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo()

	isbn := "9780441013593"
	proposal := newBookProposal(uuid.New(), "Dune")
	proposal.ISBN = &isbn

	created, err := repo.Create(ctx, proposal)
	require.NoError(t, err)

	empty := ""
	updated, err := repo.UpdatePayload(ctx, created.ID, model.UpdateBookProposalRequest{ISBN: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.ISBN)
	assert.Equal(t, "Dune", *updated.Title, "untouched fields keep their value")
}

func TestApproveBookMaterializesCatalogueEntry(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepo()
	admin := uuid.New()

	created, err := repo.Create(ctx, newBookProposal(uuid.New(), "Dune"))
	require.NoError(t, err)

	result, err := repo.Approve(ctx, created.ID, admin)
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, result.Proposal.Status)
	require.NotNil(t, result.Proposal.DecidedBy)
	assert.Equal(t, admin, *result.Proposal.DecidedBy)
	assert.NotNil(t, result.Proposal.DecidedAt)
	assert.Nil(t, result.Proposal.RejectionReason)

	require.NotNil(t, result.Book)
	assert.Equal(t, "Dune", result.Book.Title)
	assert.Equal(t, 1, store.BookCount())
}

func TestApproveAuthorDedupAndBackfill(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepo()
	admin := uuid.New()

	// Existing catalogue author without biography, case variant of the
	// proposal's spelling.
	existing, err := store.InsertAuthor(ctx, &cataloguemodel.Author{FirstName: "george", LastName: "orwell"})
	require.NoError(t, err)

	bio := "English novelist, essayist and critic."
	created, err := repo.Create(ctx, newAuthorProposal(uuid.New(), "George", "Orwell", &bio))
	require.NoError(t, err)

	result, err := repo.Approve(ctx, created.ID, admin)
	require.NoError(t, err)

	require.NotNil(t, result.Author)
	assert.Equal(t, existing.ID, result.Author.ID, "existing author reused, no new row")
	require.NotNil(t, result.Author.Biography)
	assert.Equal(t, bio, *result.Author.Biography)
	assert.Equal(t, 1, store.AuthorCount())
}

func TestApproveAuthorKeepsExistingBiography(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepo()
	admin := uuid.New()

	seeded := authorFixture("George", "Orwell")
	kept := "The one true biography."
	seeded.Biography = &kept
	existing, err := store.InsertAuthor(ctx, &seeded)
	require.NoError(t, err)

	bio := "A different text that must not overwrite."
	created, err := repo.Create(ctx, newAuthorProposal(uuid.New(), "George", "Orwell", &bio))
	require.NoError(t, err)

	result, err := repo.Approve(ctx, created.ID, admin)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, result.Author.ID)
	require.NotNil(t, result.Author.Biography)
	assert.Equal(t, kept, *result.Author.Biography)
}

func TestApproveGuards(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo()
	admin := uuid.New()

	_, err := repo.Approve(ctx, uuid.New(), admin)
	assert.ErrorIs(t, err, model.ErrProposalNotFound)

	created, err := repo.Create(ctx, newBookProposal(uuid.New(), "Dune"))
	require.NoError(t, err)

	_, err = repo.Approve(ctx, created.ID, admin)
	require.NoError(t, err)

	_, err = repo.Approve(ctx, created.ID, admin)
	assert.ErrorIs(t, err, model.ErrProposalNotPending)
}

func TestRejectSemantics(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepo()
	admin := uuid.New()

	created, err := repo.Create(ctx, newBookProposal(uuid.New(), "Dune"))
	require.NoError(t, err)

	reason := "Doublon"
	rejected, err := repo.Reject(ctx, created.ID, admin, &reason)
	require.NoError(t, err)

	assert.Equal(t, model.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.DecidedBy)
	assert.Equal(t, admin, *rejected.DecidedBy)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "Doublon", *rejected.RejectionReason)
	assert.Equal(t, 0, store.BookCount(), "rejection never touches the catalogue")

	// Second reject on the same id reads as not-found.
	_, err = repo.Reject(ctx, created.ID, admin, &reason)
	assert.ErrorIs(t, err, model.ErrProposalNotFound)

	_, err = repo.Reject(ctx, uuid.New(), admin, nil)
	assert.ErrorIs(t, err, model.ErrProposalNotFound)
}

func TestConcurrentDecisionsExactlyOneWinner(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepo()

	created, err := repo.Create(ctx, newAuthorProposal(uuid.New(), "Frank", "Herbert", nil))
	require.NoError(t, err)

	const racers = 16
	var wg sync.WaitGroup
	wins := make(chan string, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			admin := uuid.New()
			if n%2 == 0 {
				if _, err := repo.Approve(ctx, created.ID, admin); err == nil {
					wins <- "approve"
				}
			} else {
				if _, err := repo.Reject(ctx, created.ID, admin, nil); err == nil {
					wins <- "reject"
				}
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	require.Len(t, winners, 1, "exactly one decision must win")

	final, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, model.StatusPending, final.Status)

	if winners[0] == "approve" {
		assert.Equal(t, model.StatusApproved, final.Status)
		assert.Equal(t, 1, store.AuthorCount())
	} else {
		assert.Equal(t, model.StatusRejected, final.Status)
		assert.Equal(t, 0, store.AuthorCount())
	}
}

func TestCopiesDoNotAliasStoredState(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo()

	created, err := repo.Create(ctx, newBookProposal(uuid.New(), "Dune"))
	require.NoError(t, err)

	*created.Title = "Mutated"

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", *got.Title)
}

// stallingStore holds InsertBook open so an approval can be observed
// between its pending check and its status flip.
type stallingStore struct {
	cataloguestore.Store
	entered chan struct{}
	release chan struct{}
}

func (s *stallingStore) InsertBook(ctx context.Context, book *cataloguemodel.Book) (*cataloguemodel.Book, error) {
	close(s.entered)
	<-s.release
	return s.Store.InsertBook(ctx, book)
}

func TestUpdatePayloadWaitsForInFlightApproval(t *testing.T) {
	ctx := context.Background()
	store := &stallingStore{
		Store:   cataloguestore.NewMemoryStore(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	repo := NewMemoryRepository(store)
	admin := uuid.New()

	created, err := repo.Create(ctx, newBookProposal(uuid.New(), "Dune"))
	require.NoError(t, err)

	type approveOutcome struct {
		result *model.DecisionResult
		err    error
	}
	approved := make(chan approveOutcome, 1)
	go func() {
		res, err := repo.Approve(ctx, created.ID, admin)
		approved <- approveOutcome{res, err}
	}()

	<-store.entered

	edited := make(chan error, 1)
	newTitle := "Changed"
	go func() {
		_, err := repo.UpdatePayload(ctx, created.ID, model.UpdateBookProposalRequest{Title: &newTitle})
		edited <- err
	}()

	// The edit must block until the approval resolves, not land while the
	// catalogue write is in flight.
	select {
	case err := <-edited:
		t.Fatalf("payload edit completed during in-flight approval: err=%v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)

	out := <-approved
	require.NoError(t, out.err)
	assert.ErrorIs(t, <-edited, model.ErrProposalNotPending)

	final, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, final.Status)
	assert.Equal(t, "Dune", *final.Title, "approved payload matches the materialized book")
	require.NotNil(t, out.result.Book)
	assert.Equal(t, "Dune", out.result.Book.Title)
}

func TestApproveRejectsUnknownKind(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepo()

	proposal := newBookProposal(uuid.New(), "Dune")
	proposal.Kind = "magazine"
	created, err := repo.Create(ctx, proposal)
	require.NoError(t, err)

	_, err = repo.Approve(ctx, created.ID, uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown proposal kind")

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, 0, store.BookCount())
}
