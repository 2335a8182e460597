package model

import "errors"

// Error codes
const (
	ErrCodeInvalidInput    = "PROP001"
	ErrCodeUnauthenticated = "PROP002"
	ErrCodeForbidden       = "PROP003"
	ErrCodeNotFound        = "PROP004"
	ErrCodeNotPending      = "PROP005"
	ErrCodeAssetStore      = "PROP006"
)

// Errors
var (
	// ErrInvalidInput covers missing or malformed required fields,
	// unparsable dates and empty update payloads.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthenticated means no resolvable submitter or decider identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the requester is neither an admin nor the submitter.
	ErrForbidden = errors.New("forbidden")

	// ErrProposalNotFound covers unknown ids. Reject also returns it for
	// already-decided proposals: a losing concurrent caller cannot tell
	// the two cases apart, and must not learn the decision history.
	ErrProposalNotFound = errors.New("proposal not found")

	// ErrProposalNotPending is returned by approval when the row lock was
	// acquired but the proposal had already been decided. Distinct from
	// not-found because the row's existence is certain under the lock.
	ErrProposalNotPending = errors.New("proposal is not pending")
)
