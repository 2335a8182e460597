package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	cataloguemodel "bookshelf-backend/internal/domains/catalogue/model"
)

// CreateBookProposalRequest is the payload of a member book submission.
// CoverImage is populated by the handler from the multipart form.
type CreateBookProposalRequest struct {
	Title            string   `json:"title"`
	ISBN             *string  `json:"isbn,omitempty"`
	Edition          *string  `json:"edition,omitempty"`
	Volume           *int     `json:"volume,omitempty"`
	Summary          *string  `json:"summary,omitempty"`
	ReleaseDate      *string  `json:"release_date,omitempty"`
	AuthorNames      []string `json:"author_names,omitempty"`
	GenreNames       []string `json:"genre_names,omitempty"`
	CoverImage       []byte   `json:"-"`
	CoverContentType string   `json:"-"`
}

func (r CreateBookProposalRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("title is required"),
			validation.Length(1, 255),
		),
		validation.Field(&r.ISBN,
			validation.Length(10, 17),
		),
		validation.Field(&r.Volume,
			validation.Min(1),
		),
		validation.Field(&r.Summary,
			validation.Length(0, 5000),
		),
		validation.Field(&r.CoverContentType,
			validation.When(len(r.CoverImage) > 0,
				validation.Required,
				validation.In("image/jpeg", "image/png").Error("cover must be a JPEG or PNG image"),
			),
		),
	)
}

// CreateAuthorProposalRequest is the payload of a member author submission.
type CreateAuthorProposalRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Biography *string `json:"biography,omitempty"`
}

func (r CreateAuthorProposalRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName,
			validation.Required.Error("first name is required"),
			validation.Length(1, 100),
		),
		validation.Field(&r.LastName,
			validation.Required.Error("last name is required"),
			validation.Length(1, 100),
		),
		validation.Field(&r.Biography,
			validation.Length(0, 5000),
		),
	)
}

// UpdateBookProposalRequest is the admin edit of a still-pending book
// proposal. Nil fields are left untouched (PATCH behavior); a request
// with no recognized field present is rejected.
type UpdateBookProposalRequest struct {
	Title       *string  `json:"title,omitempty"`
	ISBN        *string  `json:"isbn,omitempty"`
	Edition     *string  `json:"edition,omitempty"`
	Volume      *int     `json:"volume,omitempty"`
	Summary     *string  `json:"summary,omitempty"`
	ReleaseDate *string  `json:"release_date,omitempty"`
	AuthorNames []string `json:"author_names,omitempty"`
	GenreNames  []string `json:"genre_names,omitempty"`
}

// HasRecognizedField reports whether at least one payload field is present.
func (r UpdateBookProposalRequest) HasRecognizedField() bool {
	return r.Title != nil ||
		r.ISBN != nil ||
		r.Edition != nil ||
		r.Volume != nil ||
		r.Summary != nil ||
		r.ReleaseDate != nil ||
		r.AuthorNames != nil ||
		r.GenreNames != nil
}

// RejectProposalRequest carries the optional rejection reason.
type RejectProposalRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// ListFilter drives proposal listings.
// Status nil means no status filter. SubmittedBy non-nil scopes the
// listing to one member's own submissions.
type ListFilter struct {
	Status      *Status
	SubmittedBy *uuid.UUID
	Limit       int
	Offset      int
}

// DecisionResult is the outcome of an approval: the decided proposal plus
// the catalogue entity it materialized (exactly one of Author/Book set).
type DecisionResult struct {
	Proposal *Proposal              `json:"proposal"`
	Author   *cataloguemodel.Author `json:"author,omitempty"`
	Book     *cataloguemodel.Book   `json:"book,omitempty"`
}
