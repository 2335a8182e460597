package model

import (
	"time"

	"github.com/google/uuid"
)

// Author is a catalogue author row. Created either by direct admin CRUD
// or as a side effect of an approved author proposal.
type Author struct {
	ID        uuid.UUID `json:"id" db:"id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Biography *string   `json:"biography" db:"biography"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
