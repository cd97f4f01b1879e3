package domain

import "errors"

// Error taxonomy surfaced by the core services. Guard violations map
// 1:1 onto these sentinels so callers can translate them into whatever
// transport codes they need with errors.Is.

// Invalid state-machine transitions.
var (
	ErrAlreadyAttached    = errors.New("request is already attached to an invite")
	ErrAttachInvite       = errors.New("unable to attach invite")
	ErrAlreadyComplete    = errors.New("request is already complete")
	ErrCompleteUnattached = errors.New("cannot complete an unattached request")
	ErrCompleteOnCreate   = errors.New("cannot set completion on request creation")
	ErrImmutableAccepted  = errors.New("cannot change accepted status of an accepted invite; delete the invite to refuse")
	ErrDeleteAttached     = errors.New("cannot delete an attached invite")
	ErrMutuallyCancelled  = errors.New("request is mutually cancelled")
)

// Immutable fields.
var (
	ErrImmutableCoordinates = errors.New("coordinates are read-only")
	ErrImmutablePoints      = errors.New("awarded points cannot be changed after creation")
	ErrImmutableFeedback    = errors.New("cannot alter existing feedback")
)

// Missing or expired entities.
var (
	ErrNotFound      = errors.New("not found")
	ErrInviteExpired = errors.New("invite does not exist or has expired")
)

// Duplicates.
var (
	ErrDuplicateAddress   = errors.New("address already exists within 111 metres")
	ErrDuplicateCandidate = errors.New("user is already a candidate or holds an invite for this request")
)

// Insufficient resources.
var (
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrNoLocationHistory  = errors.New("no location history exists")
)

// External collaborators and remaining guards.
var (
	ErrNotifierFailure     = errors.New("notifier delivery failed")
	ErrAddressMismatch     = errors.New("address does not match coordinates within 111 metres")
	ErrFeedbackUncompleted = errors.New("cannot submit feedback for an uncompleted request")
	ErrRatingContention    = errors.New("rating update lost to concurrent submissions, try again")
	ErrInvalidVoucher      = errors.New("ineligible or invalid voucher")
	ErrUnauthorized        = errors.New("unauthorized")
)
