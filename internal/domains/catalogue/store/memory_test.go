package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf-backend/internal/domains/catalogue/model"
)

func TestFindAuthorByNameCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	created, err := s.InsertAuthor(ctx, &model.Author{FirstName: "George", LastName: "Orwell"})
	require.NoError(t, err)

	tests := []struct {
		first, last string
	}{
		{"George", "Orwell"},
		{"george", "orwell"},
		{"GEORGE", "ORWELL"},
		{"gEoRgE", "oRwElL"},
	}
	for _, tt := range tests {
		found, err := s.FindAuthorByName(ctx, tt.first, tt.last)
		require.NoError(t, err)
		require.NotNil(t, found, "expected a match for %s %s", tt.first, tt.last)
		assert.Equal(t, created.ID, found.ID)
	}

	// Diacritic and spacing variants stay distinct authors.
	missing, err := s.FindAuthorByName(ctx, "Géorge", "Orwell")
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = s.FindAuthorByName(ctx, "George ", "Orwell")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFindAuthorByNameFirstMatchWins(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first, err := s.InsertAuthor(ctx, &model.Author{FirstName: "John", LastName: "Smith"})
	require.NoError(t, err)
	_, err = s.InsertAuthor(ctx, &model.Author{FirstName: "john", LastName: "smith"})
	require.NoError(t, err)

	found, err := s.FindAuthorByName(ctx, "JOHN", "SMITH")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID, "oldest insert should win the dedup search")
}

func TestUpdateAuthorBiography(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	created, err := s.InsertAuthor(ctx, &model.Author{FirstName: "George", LastName: "Orwell"})
	require.NoError(t, err)
	require.Nil(t, created.Biography)

	updated, err := s.UpdateAuthorBiography(ctx, created.ID, "English novelist and essayist.")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	require.NotNil(t, updated.Biography)
	assert.Equal(t, "English novelist and essayist.", *updated.Biography)

	_, err = s.UpdateAuthorBiography(ctx, created.ID, "replaced")
	require.NoError(t, err)

	_, err = s.UpdateAuthorBiography(ctx, uuid.New(), "whatever")
	assert.ErrorIs(t, err, model.ErrAuthorNotFound)
}

func TestInsertBookCopiesPayload(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	isbn := "9780441013593"
	names := []string{"Frank Herbert"}
	created, err := s.InsertBook(ctx, &model.Book{
		Title:       "Dune",
		ISBN:        &isbn,
		AuthorNames: names,
	})
	require.NoError(t, err)

	// Mutating the caller's slice must not leak into the store.
	names[0] = "Someone Else"

	got, err := s.GetBookByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, []string{"Frank Herbert"}, got.AuthorNames)

	_, err = s.GetBookByID(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrBookNotFound)
}
