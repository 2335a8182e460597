package store

import (
	"context"

	"github.com/google/uuid"

	"bookshelf-backend/internal/domains/catalogue/model"
)

// Store is the catalogue collaborator consumed by the proposal workflow.
// The catalogue rows themselves are owned here, never by proposals.
//
// FindAuthorByName matches case-insensitively on the exact
// (first name, last name) pair and returns (nil, nil) when no author
// matches. No fuzzy matching; diacritic and middle-name variants are
// treated as distinct authors.
type Store interface {
	FindAuthorByName(ctx context.Context, firstName, lastName string) (*model.Author, error)
	GetAuthorByID(ctx context.Context, id uuid.UUID) (*model.Author, error)
	InsertAuthor(ctx context.Context, author *model.Author) (*model.Author, error)
	UpdateAuthorBiography(ctx context.Context, id uuid.UUID, biography string) (*model.Author, error)
	InsertBook(ctx context.Context, book *model.Book) (*model.Book, error)
	GetBookByID(ctx context.Context, id uuid.UUID) (*model.Book, error)

	// InvalidateAuthor drops cached read entries for an author whose row
	// was written by a transaction outside this store (proposal approval).
	// No-op for backends without a cache layer.
	InvalidateAuthor(ctx context.Context, author *model.Author)
}
