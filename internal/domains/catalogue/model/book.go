package model

import (
	"time"

	"github.com/google/uuid"
)

// Book is a catalogue book row, materialized from an approved book proposal.
type Book struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	ISBN           *string   `json:"isbn" db:"isbn"`
	Edition        *string   `json:"edition" db:"edition"`
	Volume         *int      `json:"volume" db:"volume"`
	Summary        *string   `json:"summary" db:"summary"`
	ReleaseDate    *string   `json:"release_date" db:"release_date"` // YYYY-MM-DD
	AuthorNames    []string  `json:"author_names" db:"author_names"`
	GenreNames     []string  `json:"genre_names" db:"genre_names"`
	CoverImagePath *string   `json:"cover_image_path" db:"cover_image_path"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
