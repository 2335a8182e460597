package model

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the two proposal variants.
type Kind string

const (
	KindBook   Kind = "book"
	KindAuthor Kind = "author"
)

// Status is the proposal lifecycle state.
// pending is the only non-terminal state: a proposal is created pending,
// decided at most once, and never deleted.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus maps a filter string to a Status.
// Unrecognized values return false and are treated as "no filter".
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(s), true
	default:
		return "", false
	}
}

// Proposal is a member-submitted candidate book or author.
// Both variants share one row shape; Kind selects which payload
// fields are meaningful.
//
// Payload fields are mutable only while Status is pending. DecidedBy,
// DecidedAt and RejectionReason are all-or-nothing with a non-pending
// status: approval clears RejectionReason, rejection sets it to the
// provided reason or leaves it null.
type Proposal struct {
	ID     uuid.UUID `json:"id" db:"id"`
	Kind   Kind      `json:"kind" db:"kind"`
	Status Status    `json:"status" db:"status"`

	SubmittedBy    uuid.UUID `json:"submitted_by" db:"submitted_by"`
	SubmitterEmail string    `json:"submitter_email" db:"submitter_email"`
	SubmittedAt    time.Time `json:"submitted_at" db:"submitted_at"`

	DecidedBy       *uuid.UUID `json:"decided_by" db:"decided_by"`
	DecidedAt       *time.Time `json:"decided_at" db:"decided_at"`
	RejectionReason *string    `json:"rejection_reason" db:"rejection_reason"`

	// Book payload
	Title          *string  `json:"title,omitempty" db:"title"`
	ISBN           *string  `json:"isbn,omitempty" db:"isbn"`
	Edition        *string  `json:"edition,omitempty" db:"edition"`
	Volume         *int     `json:"volume,omitempty" db:"volume"`
	Summary        *string  `json:"summary,omitempty" db:"summary"`
	ReleaseDate    *string  `json:"release_date,omitempty" db:"release_date"` // YYYY-MM-DD
	AuthorNames    []string `json:"author_names,omitempty" db:"author_names"`
	GenreNames     []string `json:"genre_names,omitempty" db:"genre_names"`
	CoverImagePath *string  `json:"cover_image_path,omitempty" db:"cover_image_path"`

	// Author payload
	FirstName *string `json:"first_name,omitempty" db:"first_name"`
	LastName  *string `json:"last_name,omitempty" db:"last_name"`
	Biography *string `json:"biography,omitempty" db:"biography"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsPending reports whether the proposal can still be decided or edited.
func (p *Proposal) IsPending() bool {
	return p.Status == StatusPending
}

// DisplayName is the human-readable subject of the proposal,
// used in decision notifications.
func (p *Proposal) DisplayName() string {
	switch p.Kind {
	case KindBook:
		if p.Title != nil {
			return *p.Title
		}
	case KindAuthor:
		if p.FirstName != nil && p.LastName != nil {
			return *p.FirstName + " " + *p.LastName
		}
	}
	return p.ID.String()
}
